package echoapi

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/enroll"
)

type billingApi struct {
	svc    enroll.Service
	logger core.Logger
}

func registerBillingAPI(g *echo.Group, opts *Options) {
	api := billingApi{
		svc:    opts.EnrollSvc,
		logger: opts.Logger,
	}

	bg := g.Group("/billing")

	// authed by signature, not JWT
	bg.POST("/webhook", api.webhook)
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (api *billingApi) webhook(ctx echo.Context) error {
	// the signature covers the exact raw bytes; read before any binding
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}

	// the provider only retries on its own response contract, so every
	// outcome, errors included, goes out as {success, message}
	sig := ctx.Request().Header.Get(enroll.SignatureHeader)
	if !enroll.VerifySignature(body, sig, core.Conf.Billing.WebhookSecret) {
		return ctx.JSON(http.StatusUnauthorized, WebhookResponse{Message: "invalid webhook signature"})
	}

	var notif enroll.OrderNotification
	if err = json.Unmarshal(body, &notif); err != nil {
		return ctx.JSON(http.StatusBadRequest, WebhookResponse{Message: "malformed notification payload"})
	}

	if !notif.Paid() {
		// acknowledge so the provider stops redelivering
		return ctx.JSON(http.StatusOK, WebhookResponse{
			Success: true,
			Message: fmt.Sprintf("order status %q ignored", notif.OrderStatus),
		})
	}

	// a paid order without a buyer or a product is not processable; reject
	// before any state is written
	if notif.Customer.Email == "" || notif.Product.ProductID == "" {
		return ctx.JSON(http.StatusBadRequest, WebhookResponse{Message: "notification missing customer email or product id"})
	}

	outcome, err := api.svc.ProcessPaidOrder(ctx.Request().Context(), notif.Customer.Email, notif.Product.ProductID)
	if err != nil {
		api.logger.Error("billing: processing paid order failed", errors.Wrapf(err, "processing paid order %s", notif.OrderRef))
		return ctx.JSON(http.StatusInternalServerError, WebhookResponse{Message: http.StatusText(http.StatusInternalServerError)})
	}

	switch {
	case outcome.UnknownProduct:
		return ctx.JSON(http.StatusOK, WebhookResponse{
			Success: true,
			Message: fmt.Sprintf("product %q has no module mapping", notif.Product.ProductID),
		})
	case outcome.Pending:
		return ctx.JSON(http.StatusOK, WebhookResponse{
			Success: true,
			Message: "purchase recorded; awaiting matching account",
		})
	default:
		return ctx.JSON(http.StatusOK, WebhookResponse{
			Success: true,
			Message: fmt.Sprintf("modules %v unlocked", outcome.Modules),
		})
	}
}
