package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/api/responses"
	"github.com/Prem931993/buytown-sub000/api/validators"
	checkoutsvc "github.com/Prem931993/buytown-sub000/internal/checkout"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress  *types.Address   `json:"shipping_address" validate:"required"`
	BillingAddress   *types.Address   `json:"billing_address"`
	PaymentMethod    string           `json:"payment_method" validate:"required"`
	Notes            *string          `json:"notes" validate:"omitempty,max=1000"`
	DeliveryDistance *decimal.Decimal `json:"delivery_distance"`
}

// Checkout turns the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID, checkoutsvc.Input{
			ShippingAddress:  payload.ShippingAddress,
			BillingAddress:   payload.BillingAddress,
			PaymentMethod:    payload.PaymentMethod,
			Notes:            payload.Notes,
			DeliveryDistance: payload.DeliveryDistance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), order.ID.String())
			logg.Info(logg.WithField(ctx, "order_number", order.OrderNumber), "checkout.completed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
