package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Prem931993/buytown-sub000/api/middleware"
	"github.com/Prem931993/buytown-sub000/api/validators"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
	"github.com/Prem931993/buytown-sub000/pkg/pagination"
)

const maxReasonLength = 500

func actorID(r *http.Request) (uuid.UUID, error) {
	id, _, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func gatewayParam(raw string) (enums.PaymentGateway, error) {
	gateway, err := enums.ParsePaymentGateway(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment gateway").
			WithDetails(map[string]any{"gateway": raw})
	}
	return gateway, nil
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (r reasonRequest) sanitized() string {
	return validators.SanitizeString(r.Reason, maxReasonLength)
}

// decodeReason reads an optional {"reason"} body. An empty body means no
// reason was given.
func decodeReason(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return "", nil
	}
	var payload reasonRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return "", err
	}
	return payload.sanitized(), nil
}
