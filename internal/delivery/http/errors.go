package http

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/kingpilot/internal/domain"
)

// ErrorHandler renders errors as JSON, mapping domain codes to statuses
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else if de := domainError(err); de != nil {
		code = statusFor(de.Code)
		message = de.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("HTTP: %s %s: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"error":   true,
		"message": message,
	}
	if dc := domain.CodeOf(err); dc != "" {
		body["code"] = dc
	}
	return c.Status(code).JSON(body)
}

func domainError(err error) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeInvalidClickReport, domain.CodeUnknownDirection:
		return fiber.StatusBadRequest
	case domain.CodeUnknownStreet:
		return fiber.StatusNotFound
	case domain.CodeDataUnavailable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
