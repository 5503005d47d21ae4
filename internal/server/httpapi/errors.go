package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// messageError attaches a client-facing message to a sentinel error.
type messageError struct {
	err error
	msg string
}

func (e *messageError) Error() string { return e.msg + ": " + e.err.Error() }

func (e *messageError) Unwrap() error { return e.err }

func withMessage(err error, msg string) error {
	return &messageError{err: err, msg: msg}
}

var errorKinds = map[int]string{
	fiber.StatusBadRequest:            "bad_request",
	fiber.StatusUnauthorized:          "unauthorized",
	fiber.StatusForbidden:             "forbidden",
	fiber.StatusNotFound:              "not_found",
	fiber.StatusMethodNotAllowed:      "method_not_allowed",
	fiber.StatusConflict:              "conflict",
	fiber.StatusRequestEntityTooLarge: "payload_too_large",
	fiber.StatusUnprocessableEntity:   "validation_error",
	fiber.StatusTooManyRequests:       "too_many_requests",
	fiber.StatusServiceUnavailable:    "unavailable",
}

func errorKind(status int) string {
	if k, ok := errorKinds[status]; ok {
		return k
	}
	if status >= fiber.StatusInternalServerError {
		return "internal_error"
	}
	return "error"
}

// toResponse maps an error returned by a handler or middleware onto a
// status code and body. Unknown errors become 500 without leaking details.
func toResponse(err error) (int, ErrorResponse) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, ErrorResponse{Error: errorKind(fe.Code), Message: fe.Message}
	}

	status := fiber.StatusInternalServerError
	resp := ErrorResponse{Message: "Internal server error"}

	var ve *common.ValidationError
	var ce *common.ConflictError
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusUnprocessableEntity
		resp.Message = "Invalid input"
		resp.Fields = ve.Fields
	case errors.Is(err, common.ErrorValidation):
		status = fiber.StatusUnprocessableEntity
		resp.Message = "Invalid input"
	case errors.Is(err, common.ErrorUnauthorized):
		status = fiber.StatusUnauthorized
		resp.Message = "Could not validate credentials"
	case errors.Is(err, common.ErrorForbidden):
		status = fiber.StatusForbidden
		resp.Message = "Inactive user"
	case errors.Is(err, common.ErrorNotFound):
		status = fiber.StatusNotFound
		resp.Message = "Not found"
	case errors.As(err, &ce):
		status = fiber.StatusConflict
		resp.Message = ce.Error()
		if ce.Field != "" {
			resp.Fields = []common.FieldError{{Field: ce.Field, Message: "already registered"}}
		}
	case errors.Is(err, common.ErrorAlreadyExists):
		status = fiber.StatusConflict
		resp.Message = "Already exists"
	}

	var me *messageError
	if status < fiber.StatusInternalServerError && errors.As(err, &me) {
		resp.Message = me.msg
	}
	resp.Error = errorKind(status)
	return status, resp
}

// errorHandler is the fiber ErrorHandler for the API.
func errorHandler(l logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, resp := toResponse(err)
		if status >= fiber.StatusInternalServerError {
			l.Error(c.UserContext(), "request failed",
				"error", err.Error(), "method", c.Method(), "path", c.Path(), "request_id", requestID(c))
		}
		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, common.BearerScheme)
		}
		return c.Status(status).JSON(resp)
	}
}
