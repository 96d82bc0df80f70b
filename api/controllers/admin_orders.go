package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/api/responses"
	"github.com/Prem931993/buytown-sub000/api/validators"
	"github.com/Prem931993/buytown-sub000/internal/delivery"
	ordersvc "github.com/Prem931993/buytown-sub000/internal/orders"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

type quoteCalculator interface {
	Calculate(ctx context.Context, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*delivery.Quote, error)
}

// AdminOrderList pages through all orders, optionally filtered by status.
func AdminOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter ordersvc.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
					WithDetails(map[string]any{"status": raw}))
				return
			}
			filter.Status = &status
		}

		page, err := svc.ListForAdmin(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderPage(page))
	}
}

// AdminOrderDetail returns any order.
func AdminOrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type approveOrderRequest struct {
	VehicleID        uuid.UUID       `json:"vehicle_id" validate:"required"`
	DistanceKm       decimal.Decimal `json:"distance_km" validate:"gte=0"`
	DeliveryPersonID *uuid.UUID      `json:"delivery_person_id"`
}

// AdminOrderApprove approves a pending order and prices its delivery.
func AdminOrderApprove(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload approveOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Approve(r.Context(), ordersvc.ApproveInput{
			OrderID:          orderID,
			VehicleID:        payload.VehicleID,
			DistanceKm:       payload.DistanceKm,
			DeliveryPersonID: payload.DeliveryPersonID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminOrderReject rejects a pending order and releases its stock.
func AdminOrderReject(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := decodeReason(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), ordersvc.RejectInput{
			OrderID:          orderID,
			Reason:           reason,
			RejectedByUserID: &adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type assignOrderRequest struct {
	DeliveryPersonID uuid.UUID       `json:"delivery_person_id" validate:"required"`
	DistanceKm       decimal.Decimal `json:"distance_km" validate:"gte=0"`
}

// AdminOrderAssign hands an approved order to a delivery person.
func AdminOrderAssign(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AssignDeliveryPerson(r.Context(), ordersvc.AssignInput{
			OrderID:          orderID,
			DeliveryPersonID: payload.DeliveryPersonID,
			DistanceKm:       payload.DistanceKm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminOrderComplete marks an order completed without a delivery person.
func AdminOrderComplete(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkCompleted(r.Context(), orderID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminDeliveryQuote prices a delivery for a vehicle tier and distance.
func AdminDeliveryQuote(calc quoteCalculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery calculator unavailable"))
			return
		}
		query := r.URL.Query()

		vehicleID, err := uuid.Parse(strings.TrimSpace(query.Get("vehicle_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id"))
			return
		}
		distance, err := decimal.NewFromString(strings.TrimSpace(query.Get("distance_km")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid distance_km"))
			return
		}

		quote, err := calc.Calculate(r.Context(), vehicleID, distance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
