package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

type Tasks interface {
	Create(ctx context.Context, ownerID int64, in models.NewTask) (*models.Task, error)
	List(ctx context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Task, error)
	Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type Users interface {
	Register(ctx context.Context, in models.Registration) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.AccessToken, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, p models.ProfileUpdate) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	tasks  Tasks
	users  Users
	db     Pinger
	logger logging.Logger
}

func NewHandlers(tasks Tasks, users Users, db Pinger, l logging.Logger) *Handlers {
	return &Handlers{tasks: tasks, users: users, db: db, logger: l}
}

const taskNotFoundMessage = "Task not found"

// decodeJSON unmarshals the request body into v. Unknown keys are ignored.
func decodeJSON(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return common.NewValidationError("body", "is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return common.NewValidationError(te.Field, "has the wrong type")
		}
		return common.NewValidationError("body", "must be a valid JSON object")
	}
	return nil
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, common.NewValidationError("task_id", "must be an integer")
	}
	return id, nil
}

func parseListOptions(c *fiber.Ctx) (models.ListOptions, error) {
	opts := models.DefaultListOptions()
	verr := &common.ValidationError{}

	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("skip", "must be an integer")
		}
		opts.Skip = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("limit", "must be an integer")
		}
		opts.Limit = n
	}
	// an empty status=, priority= or search= is present and fails validation
	args := c.Request().URI().QueryArgs()
	if args.Has("status") {
		s := models.Status(strings.Clone(c.Query("status")))
		opts.Status = &s
	}
	if args.Has("priority") {
		p := models.Priority(strings.Clone(c.Query("priority")))
		opts.Priority = &p
	}
	if args.Has("search") {
		s := strings.Clone(c.Query("search"))
		opts.Search = &s
	}

	return opts, verr.OrNil()
}

// Root identifies the service.
func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(RootResponse{Message: "Welcome to the Task Management API", Version: Version})
}

// Health checks that the database answers.
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unhealthy", Database: "unavailable"})
	}
	return c.JSON(HealthResponse{Status: "healthy", Database: "ok"})
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req models.Registration
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.logger.Info(c.UserContext(), "user registered", "user_id", user.ID, "request_id", requestID(c))
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return common.NewValidationError("body", "must be JSON or form-encoded credentials")
	}

	verr := &common.ValidationError{}
	if req.Username == "" {
		verr.Add("username", "is required")
	}
	if req.Password == "" {
		verr.Add("password", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	token, err := h.users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return withMessage(err, "Incorrect username or password")
		}
		return err
	}
	return c.JSON(toTokenResponse(token))
}

// Me returns the caller's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := h.users.Profile(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// UpdateMe applies a partial profile edit.
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.UserContext(), currentUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// DeleteMe removes the caller's account and all of its tasks.
func (h *Handlers) DeleteMe(c *fiber.Ctx) error {
	user := currentUser(c)
	if err := h.users.DeleteAccount(c.UserContext(), user.ID); err != nil {
		return err
	}
	h.logger.Info(c.UserContext(), "account deleted", "user_id", user.ID, "request_id", requestID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req models.NewTask
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.UserContext(), currentUser(c).ID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(task))
}

func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return err
	}

	list, err := h.tasks.List(c.UserContext(), currentUser(c).ID, opts)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponses(list))
}

func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.Get(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return taskError(err)
	}
	return c.JSON(toTaskResponse(task))
}

func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req models.TaskPatch
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.UserContext(), currentUser(c).ID, id, req)
	if err != nil {
		return taskError(err)
	}
	return c.JSON(toTaskResponse(task))
}

func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return taskError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func taskError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return withMessage(err, taskNotFoundMessage)
	}
	return err
}
