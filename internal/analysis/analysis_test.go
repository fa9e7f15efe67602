package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(context.Background(), srv.URL+"/", time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const successBody = `{
	"status": "success",
	"product_id": 42,
	"demand_forecast": "increasing",
	"optimized_price": 19.99,
	"inventory": {
		"avg_daily_demand": 3.5,
		"safety_stock": 12.25,
		"reorder_point": 40.75,
		"current_stock": 30,
		"action": "reorder",
		"suggested_reorder_qty": 11
	},
	"message": "Restock soon"
}`

func TestAnalyze_Success(t *testing.T) {
	var gotBody map[string]any
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, successBody)
	})

	res, err := c.Analyze(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"product_id": float64(42)}, gotBody)

	assert.Equal(t, &Result{
		Status:         "success",
		ProductID:      42,
		DemandForecast: "increasing",
		OptimizedPrice: 19.99,
		Inventory: Inventory{
			AvgDailyDemand:      3.5,
			SafetyStock:         12.25,
			ReorderPoint:        40.75,
			CurrentStock:        30,
			Action:              "reorder",
			SuggestedReorderQty: 11,
		},
		Message: "Restock soon",
	}, res)
	assert.Equal(t, "Product 42: Restock soon", res.Trigger())
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantNotice string
	}{
		{
			name:       "service reports error",
			status:     http.StatusOK,
			body:       `{"status":"error","message":"product not found"}`,
			wantKind:   ErrRejected,
			wantNotice: "analysis failed: product not found",
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `{"status":"error","message":"boom"}`,
			wantKind:   ErrUnavailable,
			wantNotice: "could not reach analysis service",
		},
		{
			name:       "unknown status",
			status:     http.StatusOK,
			body:       `{"status":"pending"}`,
			wantKind:   ErrUnavailable,
			wantNotice: "could not reach analysis service",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})

			res, err := c.Analyze(context.Background(), 7)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tc.wantKind), "got %v", err)

			var aerr *Error
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, 7, aerr.ProductID)
			assert.Equal(t, tc.wantNotice, aerr.Notice())
		})
	}
}

func TestAnalyze_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(context.Background(), url, 200*time.Millisecond)
	defer c.Close()

	_, err := c.Analyze(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "could not reach analysis service", aerr.Notice())
	assert.NotNil(t, aerr.Err)
}

func TestAnalyze_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(context.Background(), srv.URL, 50*time.Millisecond)
	defer c.Close()

	_, err := c.Analyze(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, successBody)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Analyze(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: ErrRejected, ProductID: 3, Detail: "nope"}
	assert.Equal(t, "analyze product 3: analysis rejected: nope", err.Error())
	assert.Equal(t, "analysis failed", (&Error{Kind: ErrRejected}).Notice())
}
