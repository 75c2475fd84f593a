// Package payment serves payment initiation, verification and the provider
// webhooks.
package payment

import (
	"errors"
	"log/slog"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/provider/payment"
	contributionsvc "github.com/amirasaad/charity/pkg/service/contribution"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Signature headers sent by the providers.
const (
	StripeSignatureHeader   = "Stripe-Signature"
	PaystackSignatureHeader = "x-paystack-signature"
)

func Routes(app *fiber.App, svc *contributionsvc.Service, gateways payment.Registry, logger *slog.Logger) {
	app.Post("/payments/initiate", Initiate(svc))
	app.Post("/payments/verify", Verify(svc))
	app.Post("/webhooks/stripe", Webhook(svc, gateways, contribution.MethodCard, StripeSignatureHeader, logger))
	app.Post("/webhooks/paystack", Webhook(svc, gateways, contribution.MethodMobileMoney, PaystackSignatureHeader, logger))
}

// Initiate starts a payment and returns what the client needs to finish it.
func Initiate(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[InitiateInput](c)
		if input == nil {
			return err
		}
		resp, err := svc.InitiatePayment(c.Context(), input.RecordID)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment initiated", resp)
	}
}

// Verify polls the provider and settles the record accordingly.
func Verify(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[VerifyInput](c)
		if input == nil {
			return err
		}
		res, err := svc.VerifyPayment(c.Context(), input.RecordID, input.Reference)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment verified", res)
	}
}

// Webhook authenticates a provider callback and applies it. Outcomes the
// provider cannot fix by retrying are acknowledged with 200; store failures
// answer 500 so the provider delivers again.
func Webhook(
	svc *contributionsvc.Service,
	gateways payment.Registry,
	method contribution.PaymentMethod,
	header string,
	logger *slog.Logger,
) fiber.Handler {
	log := logger.With("handler", "Webhook", "method", method)
	return func(c *fiber.Ctx) error {
		gw, ok := gateways.Gateway(string(method))
		if !ok {
			return common.ProblemDetailsJSON(c, "Payment provider unavailable", domain.ErrProviderUnavailable,
				fiber.StatusServiceUnavailable)
		}
		signature := c.Get(header)
		if signature == "" {
			return common.ProblemDetailsJSON(c, "Missing signature", nil, "Missing "+header+" header",
				fiber.StatusBadRequest)
		}
		payload := c.Body()
		if len(payload) == 0 {
			return common.ProblemDetailsJSON(c, "Empty request body", nil, fiber.StatusBadRequest)
		}

		v, err := gw.ParseWebhook(c.Context(), payload, signature)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if v == nil {
			return c.SendStatus(fiber.StatusOK)
		}
		if _, err := svc.HandlePaymentEvent(c.Context(), v); err != nil {
			if acknowledged(err) {
				log.Warn("Webhook event not applied", "reference", v.Reference, "error", err)
				return c.SendStatus(fiber.StatusOK)
			}
			log.Error("Failed to apply webhook event", "reference", v.Reference, "error", err)
			return common.ErrorJSON(c, err)
		}
		log.Info("✅ Webhook event applied", "reference", v.Reference, "status", v.Status)
		return c.SendStatus(fiber.StatusOK)
	}
}

func acknowledged(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrValidation)
}
