package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/pagination"
)

func TestDeliveryOrderListScopesToCaller(t *testing.T) {
	person := uuid.New()
	svc := &stubOrderService{page: &pagination.Page[models.Order]{}}

	req := newRequest(http.MethodGet, "/api/delivery/v1/orders", "", person, enums.RoleDeliveryPerson, nil)
	rec, _ := serve(t, DeliveryOrderList(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.actor != person || svc.pageParams.Limit != pagination.DefaultLimit {
		t.Fatalf("unexpected list call actor=%s params=%+v", svc.actor, svc.pageParams)
	}
}

func TestDeliveryOrderRejectWithoutBody(t *testing.T) {
	person := uuid.New()
	svc := &stubOrderService{order: sampleOrder()}

	req := newRequest(http.MethodPost, "/reject", "", person, enums.RoleDeliveryPerson, map[string]string{"orderId": uuid.NewString()})
	rec, _ := serve(t, DeliveryOrderReject(svc, nil), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.actor != person || svc.reason != "" {
		t.Fatalf("unexpected reject call actor=%s reason=%q", svc.actor, svc.reason)
	}
}

func TestDeliveryOrderComplete(t *testing.T) {
	person := uuid.New()
	order := sampleOrder()
	order.Status = enums.OrderStatusDelivered
	svc := &stubOrderService{order: order}

	req := newRequest(http.MethodPost, "/complete", "", person, enums.RoleDeliveryPerson, map[string]string{"orderId": order.ID.String()})
	rec, _ := serve(t, DeliveryOrderComplete(svc, nil), req)
	if rec.Code != http.StatusOK || svc.actor != person {
		t.Fatalf("expected 200 for assignee, got %d", rec.Code)
	}
}
