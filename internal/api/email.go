package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/storefront-mailer/internal/email"
	"github.com/illegalcall/storefront-mailer/internal/models"
)

const actionTestConnection = "test-connection"

// handleEmailCheck serves GET /api/email. Only the connection check is
// reachable over GET.
func (s *Server) handleEmailCheck(c *fiber.Ctx) error {
	if c.Query("action") != actionTestConnection {
		return s.dispatchError(c, email.UnknownActionError(c.Query("action")))
	}

	if err := s.dispatcher.TestConnection(c.UserContext()); err != nil {
		return s.dispatchError(c, err)
	}
	return c.JSON(models.DispatchResult{
		Success: true,
		Message: fmt.Sprintf("%s transport connection successful", s.cfg.Mail.Transport),
	})
}

// handleSendEmail serves POST /api/email?action=...
func (s *Server) handleSendEmail(c *fiber.Ctx) error {
	receipt, err := s.dispatcher.Handle(c.UserContext(), c.Query("action"), c.Body())
	if err != nil {
		return s.dispatchError(c, err)
	}

	if receipt.Action == email.ActionNewsletterSubscribe {
		s.recordSubscriber(c.UserContext(), receipt)
	}

	return c.JSON(models.DispatchResult{
		Success:      true,
		MessageID:    receipt.MessageID,
		DiscountCode: receipt.DiscountCode,
	})
}

// recordSubscriber never fails the request; the welcome email is already sent.
func (s *Server) recordSubscriber(ctx context.Context, receipt *email.Receipt) {
	sub := models.Subscriber{
		Email:        receipt.Recipient,
		IsActive:     true,
		DiscountCode: receipt.DiscountCode,
		SubscribedAt: time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, sub); err != nil {
		s.logger.Error("Failed to record subscriber", "email", sub.Email, "error", err)
	}
}

func (s *Server) dispatchError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(models.DispatchResult{
		Success: false,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, email.ErrValidation), errors.Is(err, email.ErrUnknownAction):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
