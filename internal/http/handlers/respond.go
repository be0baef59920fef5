package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sellerhub/internal/domain"
	applog "sellerhub/internal/log"
	"sellerhub/internal/validate"
)

const genericError = "Something went wrong. Please try again."

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

func reply(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Message: msg, Data: data})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "Invalid request data"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusForbidden, "Unauthorised request"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "Request conflicts with the current state"
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusBadGateway, "Payment provider unavailable, try again later"
	case errors.Is(err, domain.ErrTimeout):
		return fiber.StatusGatewayTimeout, "Request timed out, try again"
	}
	return fiber.StatusInternalServerError, genericError
}

// fail maps err onto a status and a client message. Internal details stay in
// the log.
func fail(c *fiber.Ctx, action string, err error) error {
	return failWith(c, action, err, nil)
}

// failWith is fail with per-status messages overriding the defaults.
func failWith(c *fiber.Ctx, action string, err error, msgs map[int]string) error {
	status, msg := statusOf(err)
	if m, ok := msgs[status]; ok {
		msg = m
	}
	if status == fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
	} else {
		applog.Warn(c, action, err, map[string]any{"status": status})
	}
	return c.Status(status).JSON(envelope{Success: false, Message: msg})
}

func invalid(c *fiber.Ctx, errs []validate.FieldError) error {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	applog.Security(c, "validation.fail", map[string]any{"fields": fields})
	return c.Status(fiber.StatusBadRequest).JSON(envelope{Success: false, Message: "Invalid request data", Errors: errs})
}

func badBody(c *fiber.Ctx) error {
	return invalid(c, []validate.FieldError{{Field: "body", Message: "Malformed request body", Type: "parse"}})
}

// ErrorHandler answers errors that escape handlers. Client errors raised by
// Fiber keep their status; everything else is a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(envelope{Success: false, Message: fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(envelope{Success: false, Message: genericError})
}
