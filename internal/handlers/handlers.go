package handlers

import (
	"errors"
	"strconv"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/services"
	"filmclub/server/internal/validation"
	ws "filmclub/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handlers holds the dependencies of the HTTP handlers.
type Handlers struct {
	groups       *services.GroupService
	identity     *services.IdentityService
	hub          *ws.Hub
	validate     *validation.Validator
	jwtSecret    []byte
	secureCookie bool
	log          *zap.Logger
}

// Config carries the handler dependencies.
type Config struct {
	Groups       *services.GroupService
	Identity     *services.IdentityService
	Hub          *ws.Hub
	JWTSecret    []byte
	SecureCookie bool
	Logger       *zap.Logger
}

// New creates the handler set.
func New(cfg Config) *Handlers {
	return &Handlers{
		groups:       cfg.Groups,
		identity:     cfg.Identity,
		hub:          cfg.Hub,
		validate:     validation.New(),
		jwtSecret:    cfg.JWTSecret,
		secureCookie: cfg.SecureCookie,
		log:          cfg.Logger,
	}
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// normalizer is implemented by request bodies that clean their fields
// before validation.
type normalizer interface {
	normalize()
}

// parseBody decodes, normalizes and validates the request body into req.
func (h *Handlers) parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.Validation("invalid request body", nil)
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return h.validate.Validate(req)
}

// paramID parses a positive int64 route parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid "+name, map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// ErrorHandler renders every error returned by a handler or middleware as
// {"success":false,"error":{"code","message","details"}}. Internal errors
// are logged and never leak their cause.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &appErr):
			if appErr.Code == apperror.CodeInternal {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
		case errors.As(err, &fiberErr):
			appErr = apperror.New(codeForStatus(fiberErr.Code), fiberErr.Message)
			return renderError(c, fiberErr.Code, appErr)
		default:
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			appErr = apperror.ErrInternal
		}

		return renderError(c, appErr.HTTPStatus(), appErr)
	}
}

func renderError(c *fiber.Ctx, status int, e *apperror.Error) error {
	body := fiber.Map{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   body,
	})
}

func codeForStatus(status int) apperror.Code {
	switch status {
	case fiber.StatusUnauthorized:
		return apperror.CodeUnauthenticated
	case fiber.StatusForbidden:
		return apperror.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperror.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return apperror.CodeValidation
	default:
		if status < fiber.StatusInternalServerError {
			return apperror.Code("HTTP_" + strconv.Itoa(status))
		}
		return apperror.CodeInternal
	}
}
