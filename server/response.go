package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeServiceError    = "SERVICE_ERROR"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, code, message string, details any) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func validationError(c *fiber.Ctx, message string, details any) error {
	return errorJSON(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

func notFound(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}

// errorHandler renders errors that escape handlers in the same envelope
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	switch code {
	case fiber.StatusNotFound:
		return notFound(c, err.Error())
	case fiber.StatusInternalServerError:
		return errorJSON(c, code, CodeServiceError, err.Error(), nil)
	}
	return errorJSON(c, code, CodeValidationError, err.Error(), nil)
}

// formatValidationErrors maps each failing field to the rule it broke
func formatValidationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = e.Tag()
	}
	return out
}
