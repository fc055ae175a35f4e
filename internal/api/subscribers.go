package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/storefront-mailer/internal/models"
	"github.com/illegalcall/storefront-mailer/internal/subscriber"
)

func (s *Server) handleUnsubscribe(c *fiber.Ctx) error {
	var req models.UnsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Subscriber storage is not configured",
		})
	}

	err := s.store.Deactivate(c.UserContext(), req.Email)
	switch {
	case errors.Is(err, subscriber.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscriber not found",
		})
	case err != nil:
		s.logger.Error("Failed to unsubscribe", "email", req.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsubscribe",
		})
	}

	s.logger.Info("Subscriber unsubscribed", "email", subscriber.NormalizeEmail(req.Email))
	return c.JSON(fiber.Map{
		"success": true,
		"message": "You have been unsubscribed",
	})
}

func (s *Server) handleListSubscribers(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Subscriber storage is not configured",
		})
	}

	subs, err := s.store.List(c.UserContext())
	if err != nil {
		s.logger.Error("Error fetching subscribers", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscribers",
		})
	}
	return c.JSON(fiber.Map{"subscribers": subs})
}
