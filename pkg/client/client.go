// Package client is a typed Go client for the TRACC stock API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"tracc-api/internal/model"
	"tracc-api/pkg/apierror"
)

// Config configures the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a resty-backed client for the stock API. Failed calls return an
// *apierror.Error carrying the server's status and error code.
type Client struct {
	httpClient *resty.Client
}

// New builds a client for the API served at cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/api/v1").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}
}

// envelope mirrors the success response of the API.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type fifoPreview struct {
	Items []model.OutboundItem `json:"items"`
}

// BatchRequest is the body of a blend withdrawal.
type BatchRequest struct {
	OperatorName string               `json:"operator_name"`
	Selections   []model.LotSelection `json:"selections"`
}

// OutboundRequest is a FIFO withdrawal from one silo.
type OutboundRequest struct {
	SiloID       string          `json:"silo_id"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	OperatorName string          `json:"operator_name"`
}

// ListSilos returns the live snapshot of every silo.
func (c *Client) ListSilos(ctx context.Context) ([]model.SiloSnapshot, error) {
	return do[[]model.SiloSnapshot](ctx, c.httpClient.R(), http.MethodGet, "/silos", "list silos")
}

// GetSnapshot returns the snapshot of one silo. A zero at asks for the live
// snapshot.
func (c *Client) GetSnapshot(ctx context.Context, siloID string, at time.Time) (*model.SiloSnapshot, error) {
	req := c.httpClient.R()
	if !at.IsZero() {
		req.SetQueryParam("at", at.UTC().Format(time.RFC3339Nano))
	}
	snap, err := do[model.SiloSnapshot](ctx, req, http.MethodGet, "/silos/"+url.PathEscape(siloID), "get snapshot")
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// PreviewFIFO returns the lots a withdrawal of qty would consume.
func (c *Client) PreviewFIFO(ctx context.Context, siloID string, qty decimal.Decimal) ([]model.OutboundItem, error) {
	req := c.httpClient.R().SetQueryParam("quantity", qty.String())
	preview, err := do[fifoPreview](ctx, req, http.MethodGet, "/silos/"+url.PathEscape(siloID)+"/fifo", "preview fifo")
	if err != nil {
		return nil, err
	}
	return preview.Items, nil
}

// CreateInbound records a receipt.
func (c *Client) CreateInbound(ctx context.Context, rec model.InboundRecord) (*model.InboundRecord, error) {
	created, err := do[model.InboundRecord](ctx, c.httpClient.R().SetBody(rec), http.MethodPost, "/inbound", "create inbound")
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateOutbound records a FIFO withdrawal.
func (c *Client) CreateOutbound(ctx context.Context, req OutboundRequest) (*model.OutboundRecord, error) {
	created, err := do[model.OutboundRecord](ctx, c.httpClient.R().SetBody(req), http.MethodPost, "/outbound", "create outbound")
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// BatchWithdraw records a blend withdrawal over one or more silos.
func (c *Client) BatchWithdraw(ctx context.Context, req BatchRequest) (*model.BatchResult, error) {
	result, err := do[model.BatchResult](ctx, c.httpClient.R().SetBody(req), http.MethodPost, "/outbound/batch", "batch withdraw")
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func do[T any](ctx context.Context, req *resty.Request, method, path, op string) (T, error) {
	var zero T

	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return zero, apierror.Decode(resp.StatusCode(), resp.Body())
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return zero, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return env.Data, nil
}
