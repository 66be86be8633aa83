package api

import (
	"log"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// fail writes the error envelope with the given status and code.
func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
	})
}

func validationError(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, CodeValidationError, message)
}

func notFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, CodeNotFound, message)
}

func internalError(c *fiber.Ctx) error {
	return fail(c, fiber.StatusInternalServerError, CodeInternalError, "Internal server error")
}

// bulkNotFoundPattern matches the bulk engine's miss message so the exact
// text, task ID included, reaches the client.
var bulkNotFoundPattern = regexp.MustCompile(`Task \d+ not found or doesn't belong to user`)

// tagLengthPattern matches the per-tag length message, which embeds the
// offending tag.
var tagLengthPattern = regexp.MustCompile(`Tag '[^']*' exceeds 50 characters`)

// validationMessages are the exact engine messages that map to 400. Errors
// cross the service container flattened to strings, so the message text is
// the contract.
var validationMessages = []string{
	"Title is required",
	"Title must be 200 characters or less",
	"Description must be 1000 characters or less",
	"Priority must be one of: low, medium, high",
	"Due date cannot be in the past",
	"Maximum 10 tags allowed",
	"Format must be 'csv' or 'json'",
}

// mapServiceError translates a flattened cross-module error into the right
// envelope: misses to 404, known validation text to 400, anything else to a
// logged 500 that leaks nothing.
func mapServiceError(c *fiber.Ctx, err error) error {
	msg := err.Error()

	if m := bulkNotFoundPattern.FindString(msg); m != "" {
		return notFound(c, m)
	}
	if strings.Contains(strings.ToLower(msg), "not found") {
		return notFound(c, "Task not found")
	}
	for _, known := range validationMessages {
		if strings.Contains(msg, known) {
			return validationError(c, known)
		}
	}
	if m := tagLengthPattern.FindString(msg); m != "" {
		return validationError(c, m)
	}

	log.Printf("[api] Internal error: %v", err)
	return internalError(c)
}
