// Package response holds the JSON payload helpers shared by all handlers.
package response

import "github.com/gofiber/fiber/v2"

// StatusMessage is the generic status envelope.
type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Limits echoes the configured per-route rate limits back to clients so
// well-behaved ones can back off correctly.
type Limits struct {
	Default       string `json:"default"`
	StartDownload string `json:"start_download"`
	DownloadFile  string `json:"download_file"`
}

// RateLimitedResponse is the 429 payload.
type RateLimitedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Limits  Limits `json:"limits"`
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(StatusMessage{
		Status:  "error",
		Message: message,
	})
}

func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(StatusMessage{
		Status: "not found",
	})
}

func ServerError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(StatusMessage{
		Status:  "error",
		Message: message,
	})
}

func Canceled(c *fiber.Ctx) error {
	return c.JSON(StatusMessage{Status: "canceled"})
}

func RateLimited(c *fiber.Ctx, limits Limits) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(RateLimitedResponse{
		Status:  "error",
		Message: "Too many requests. Please try again later.",
		Limits:  limits,
	})
}
