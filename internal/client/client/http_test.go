package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_LoginUsesForm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		_, _ = io.WriteString(w, `{"access_token":"jwt","token_type":"bearer","expires_in":1800}`)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL+"/", time.Second)
	tok, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, &models.Token{AccessToken: "jwt", TokenType: "bearer", ExpiresIn: 1800}, tok)
}

func TestHTTPClient_SendsBearerAndQuery(t *testing.T) {
	var gotAuth, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"id":1,"title":"Buy milk","description":null,"status":"pending","priority":"high","owner_id":1}]`)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)
	c.SetToken("jwt")

	list, err := c.ListTasks(context.Background(), models.TaskFilter{Priority: "high", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt", gotAuth)
	assert.Equal(t, "limit=5&priority=high", gotQuery)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Title)
	assert.Nil(t, list[0].Description)
}

func TestHTTPClient_UpdateSendsOnlyGivenKeys(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tasks/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id":7,"title":"x","status":"completed","priority":"medium"}`)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, time.Second)
	task, err := c.UpdateTask(context.Background(), 7, models.TaskPatch{"status": "completed", "description": nil})
	require.NoError(t, err)
	assert.Equal(t, "completed", task.Status)
	assert.Equal(t, map[string]any{"status": "completed", "description": nil}, body)
}

func TestHTTPClient_DeleteNoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, NewHTTPClient(ts.URL, time.Second).DeleteTask(context.Background(), 3))
}

func TestHTTPClient_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"not found", 404, `{"error":"not_found","message":"Task not found"}`, ErrNotFound, "Task not found"},
		{"unauthorized", 401, `{"error":"unauthorized","message":"Not authenticated"}`, ErrUnauthorized, "Not authenticated"},
		{"forbidden", 403, `{"error":"forbidden","message":"Inactive user"}`, ErrForbidden, "Inactive user"},
		{"unavailable", 503, `{"status":"unhealthy"}`, ErrUnavailable, "Service Unavailable"},
		{"validation", 422, `{"error":"validation_error","message":"Invalid input","fields":[{"field":"title","message":"is required"}]}`, nil, "Invalid input: title is required"},
		{"not json", 500, `oops`, nil, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			_, err := NewHTTPClient(ts.URL, time.Second).GetTask(context.Background(), 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, err.Error())
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestHTTPClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	err := NewHTTPClient(ts.URL, time.Second).Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
