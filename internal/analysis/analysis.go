// Package analysis is a client for the external product analysis service.
// The service is optional: every failure is reported as an *Error carrying a
// short notice fit for showing to a user, and nothing in the simulation
// depends on it succeeding.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
)

// DefaultTimeout bounds a single analysis call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnavailable covers transport failures, non-2xx replies and bodies
	// that could not be decoded.
	ErrUnavailable = errors.New("analysis service unavailable")
	// ErrRejected means the service answered with status "error".
	ErrRejected = errors.New("analysis rejected")
)

// Error is returned for every failed Analyze call.
type Error struct {
	Kind      error
	ProductID int
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "analyze product %d: %s", e.ProductID, e.Kind)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Notice is the user-facing summary of the failure.
func (e *Error) Notice() string {
	if errors.Is(e.Kind, ErrRejected) {
		if e.Detail != "" {
			return "analysis failed: " + e.Detail
		}
		return "analysis failed"
	}
	return "could not reach analysis service"
}

// Inventory holds the stock figures of a successful analysis.
type Inventory struct {
	AvgDailyDemand      float64 `json:"avg_daily_demand"`
	SafetyStock         float64 `json:"safety_stock"`
	ReorderPoint        float64 `json:"reorder_point"`
	CurrentStock        float64 `json:"current_stock"`
	Action              string  `json:"action"`
	SuggestedReorderQty float64 `json:"suggested_reorder_qty"`
}

// Result is the body of a successful reply.
type Result struct {
	Status         string    `json:"status"`
	ProductID      int       `json:"product_id"`
	DemandForecast string    `json:"demand_forecast"`
	OptimizedPrice float64   `json:"optimized_price"`
	Inventory      Inventory `json:"inventory"`
	Message        string    `json:"message"`
}

// Trigger is the goal text a successful analysis starts a run with.
func (r *Result) Trigger() string {
	return fmt.Sprintf("Product %d: %s", r.ProductID, r.Message)
}

type request struct {
	ProductID int `json:"product_id"`
}

// Client calls POST {base}/analyze.
type Client struct {
	rc *resty.Client
}

// New creates a client for the service at baseURL. A non-positive timeout
// means DefaultTimeout.
func New(ctx context.Context, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(slogAdapter{logger: ctxlog.FromContext(ctx)})
	return &Client{rc: rc}
}

// Analyze asks the service about a product.
func (c *Client) Analyze(ctx context.Context, productID int) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Requesting product analysis.", "product_id", productID)

	var out, failure Result
	res, err := c.rc.R().
		SetContext(ctx).
		SetBody(request{ProductID: productID}).
		SetResult(&out).
		SetError(&failure).
		Post("/analyze")
	if err != nil {
		return nil, &Error{Kind: ErrUnavailable, ProductID: productID, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		detail := fmt.Sprintf("unexpected status %d", res.StatusCode())
		if failure.Message != "" {
			detail += ": " + failure.Message
		}
		return nil, &Error{Kind: ErrUnavailable, ProductID: productID, Detail: detail}
	}
	switch out.Status {
	case "success":
	case "error":
		return nil, &Error{Kind: ErrRejected, ProductID: productID, Detail: out.Message}
	default:
		return nil, &Error{Kind: ErrUnavailable, ProductID: productID, Detail: fmt.Sprintf("unexpected reply status %q", out.Status)}
	}

	logger.Info("Product analysis received.", "product_id", out.ProductID, "forecast", out.DemandForecast, "action", out.Inventory.Action)
	return &out, nil
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}
