// Package phonepe talks to the PhonePe standard checkout API. Requests are
// base64 JSON signed with an X-VERIFY checksum derived from the merchant salt.
package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/config"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

const (
	payPath                     = "/pg/v1/pay"
	statusPathFormat            = "/pg/v1/status/%s/%s"
	responseBodyReadLimit int64 = 1 << 20

	headerVerify     = "X-VERIFY"
	headerMerchantID = "X-MERCHANT-ID"
)

// Response codes reported by the status and callback payloads.
const (
	CodePaymentSuccess      = "PAYMENT_SUCCESS"
	CodePaymentPending      = "PAYMENT_PENDING"
	CodePaymentError        = "PAYMENT_ERROR"
	CodePaymentDeclined     = "PAYMENT_DECLINED"
	CodePaymentCancelled    = "PAYMENT_CANCELLED"
	CodeTimedOut            = "TIMED_OUT"
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

var paymentCodes = map[string]struct{}{
	CodePaymentSuccess:      {},
	CodePaymentPending:      {},
	CodePaymentError:        {},
	CodePaymentDeclined:     {},
	CodePaymentCancelled:    {},
	CodeTimedOut:            {},
	CodeTransactionNotFound: {},
	CodeInternalServerError: {},
}

// IsPaymentCode reports whether code describes a transaction outcome rather
// than a rejected API call.
func IsPaymentCode(code string) bool {
	_, ok := paymentCodes[code]
	return ok
}

var (
	errMerchantRequired = errors.New("phonepe merchant id is required")
	errSaltRequired     = errors.New("phonepe salt key is required")
)

// Client signs and sends PhonePe requests.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	merchantID  string
	saltKey     string
	saltIndex   string
	redirectURL string
	callbackURL string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient validates credentials and builds the client.
func NewClient(cfg config.PhonePeConfig, opts ...Option) (*Client, error) {
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantRequired
	}
	saltKey := strings.TrimSpace(cfg.SaltKey)
	if saltKey == "" {
		return nil, errSaltRequired
	}
	saltIndex := strings.TrimSpace(cfg.SaltIndex)
	if saltIndex == "" {
		saltIndex = "1"
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSpace(cfg.BaseURL),
		merchantID:  merchantID,
		saltKey:     saltKey,
		saltIndex:   saltIndex,
		redirectURL: strings.TrimSpace(cfg.RedirectURL),
		callbackURL: strings.TrimSpace(cfg.CallbackURL),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		return nil, errors.New("phonepe base url is required")
	}
	return client, nil
}

// MerchantID returns the configured merchant id.
func (c *Client) MerchantID() string {
	if c == nil {
		return ""
	}
	return c.merchantID
}

// PayRequest starts a pay-page transaction.
type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountPaise           int64
	MobileNumber          string
}

// PayResponse carries the hosted pay page for the transaction.
type PayResponse struct {
	MerchantTransactionID string
	RedirectURL           string
	Raw                   map[string]any
}

// StatusResponse is the decoded status or callback payload.
type StatusResponse struct {
	Success               bool
	Code                  string
	Message               string
	MerchantTransactionID string
	TransactionID         string
	State                 string
	AmountPaise           int64
	Raw                   map[string]any
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	InstrumentResponse    struct {
		Type         string `json:"type"`
		RedirectInfo struct {
			URL    string `json:"url"`
			Method string `json:"method"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

type statusData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}

// Pay creates the transaction and returns the redirect URL.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	if strings.TrimSpace(req.MerchantTransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant transaction id is required")
	}
	if req.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"merchantId":            c.merchantID,
		"merchantTransactionId": req.MerchantTransactionID,
		"merchantUserId":        req.MerchantUserID,
		"amount":                req.AmountPaise,
		"redirectUrl":           c.redirectURL,
		"redirectMode":          "REDIRECT",
		"callbackUrl":           c.callbackURL,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	}
	if req.MobileNumber != "" {
		body["mobileNumber"] = req.MobileNumber
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode phonepe pay request")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	wire, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode phonepe pay envelope")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(payPath), bytes.NewReader(wire))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build phonepe pay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerVerify, Checksum(encoded+payPath, c.saltKey, c.saltIndex))

	env, rawResp, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, gatewayError(env.Code, env.Message, "phonepe rejected pay request")
	}

	var data payData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode phonepe pay response")
	}
	if data.InstrumentResponse.RedirectInfo.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "phonepe pay response missing redirect url")
	}
	return &PayResponse{
		MerchantTransactionID: req.MerchantTransactionID,
		RedirectURL:           data.InstrumentResponse.RedirectInfo.URL,
		Raw:                   rawResp,
	}, nil
}

// Status fetches the current state of a transaction.
func (c *Client) Status(ctx context.Context, merchantTransactionID string) (*StatusResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	if strings.TrimSpace(merchantTransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant transaction id is required")
	}

	path := fmt.Sprintf(statusPathFormat, c.merchantID, merchantTransactionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build phonepe status request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerVerify, Checksum(path, c.saltKey, c.saltIndex))
	httpReq.Header.Set(headerMerchantID, c.merchantID)

	env, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if !env.Success && !IsPaymentCode(env.Code) {
		return nil, gatewayError(env.Code, env.Message, "phonepe rejected status request")
	}
	return decodeStatus(env, raw, merchantTransactionID)
}

// ParseCallback verifies and decodes the server-to-server callback body.
func (c *Client) ParseCallback(xVerify string, body []byte) (*StatusResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	var wire struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &wire); err != nil || wire.Response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phonepe callback missing response")
	}
	if !VerifyChecksum(xVerify, wire.Response, c.saltKey, c.saltIndex) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "phonepe callback signature mismatch")
	}

	decoded, err := base64.StdEncoding.DecodeString(wire.Response)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode phonepe callback")
	}
	var env envelope
	if err := json.Unmarshal(decoded, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode phonepe callback payload")
	}
	raw := map[string]any{}
	_ = json.Unmarshal(decoded, &raw)
	return decodeStatus(env, raw, "")
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL, "/") + path
}

func (c *Client) do(req *http.Request) (envelope, map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "phonepe request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return envelope{}, nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read phonepe response")
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode >= http.StatusInternalServerError || (decodeErr != nil && resp.StatusCode != http.StatusOK) {
		return envelope{}, nil, pkgerrors.Wrap(pkgerrors.CodeGateway,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "phonepe request failed")
	}
	if decodeErr != nil {
		return envelope{}, nil, pkgerrors.Wrap(pkgerrors.CodeGateway, decodeErr, "decode phonepe response")
	}
	if resp.StatusCode != http.StatusOK && env.Code == "" {
		return envelope{}, nil, gatewayError("", env.Message, fmt.Sprintf("phonepe returned status %d", resp.StatusCode))
	}

	raw := map[string]any{}
	_ = json.Unmarshal(body, &raw)
	return env, raw, nil
}

func decodeStatus(env envelope, raw map[string]any, fallbackID string) (*StatusResponse, error) {
	out := &StatusResponse{
		Success:               env.Success,
		Code:                  env.Code,
		Message:               env.Message,
		MerchantTransactionID: fallbackID,
		Raw:                   raw,
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		var data statusData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode phonepe status data")
		}
		if data.MerchantTransactionID != "" {
			out.MerchantTransactionID = data.MerchantTransactionID
		}
		out.TransactionID = data.TransactionID
		out.State = data.State
		out.AmountPaise = data.Amount
	}
	if out.MerchantTransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phonepe payload missing merchant transaction id")
	}
	return out, nil
}

func gatewayError(code, message, fallback string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fallback
	}
	err := pkgerrors.New(pkgerrors.CodeGateway, msg)
	if code != "" {
		return err.WithDetails(map[string]any{"gateway_code": code})
	}
	return err
}
