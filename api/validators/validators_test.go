package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

type sampleBody struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func TestDecodeJSONBodyValidatesFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","quantity":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]string)
	if details["quantity"] == "" {
		t.Fatalf("expected quantity detail keyed by json name, got %v", typed.Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1,"price":"1.00"}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryInt(req, "limit", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default, got %d %v", v, err)
	}
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseURLUUID(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseURLUUID(req, "itemId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing param, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsTrailingDocuments(t *testing.T) {
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1}{"quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest sampleBody
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for trailing data, got %v", err)
	}
}

type distanceBody struct {
	DistanceKm decimal.Decimal `json:"distance_km" validate:"gte=0"`
}

func TestDecimalFieldsValidateAsNumbers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"distance_km":"-0.5"}`))
	var dest distanceBody
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected negative distance to fail, got %v", err)
	}
	if details, _ := typed.Details().(map[string]string); details["distance_km"] != "must be at least 0" {
		t.Fatalf("unexpected details %v", typed.Details())
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"distance_km":"12"}`))
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("expected valid distance, got %v", err)
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	// each rune is three bytes
	got := SanitizeString("தமிழ்", 4)
	if got != "த" {
		t.Fatalf("expected cut on rune boundary, got %q", got)
	}
}
