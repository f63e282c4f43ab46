// Package prediction calls the duration-estimate service that projects
// how long a clinical interaction is expected to take.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carewell-health/clinic-portal/pkg/logging"
)

var tracer = otel.Tracer("clinic-portal/prediction")

const defaultTimeout = 5 * time.Second

// Client is a thin HTTP client for the duration-estimate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a prediction client. baseURL may be empty, in which
// case every estimate request fails fast with ErrNotConfigured.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type estimateRequest struct {
	Department      string `json:"department"`
	Priority        string `json:"priority"`
	AppointmentType string `json:"appointment_type"`
	// Symptom capture lives in intake forms outside this service; zero
	// means "not captured" to the estimate model.
	SymptomCount int `json:"symptom_count"`
}

type estimateResponse struct {
	PredictedDurationSeconds int64   `json:"predicted_duration_seconds"`
	Confidence               float64 `json:"confidence"`
}

// PredictDurationSeconds asks the estimate service for an expected
// interaction duration. A zero or negative estimate is treated as the
// service declining to predict.
func (c *Client) PredictDurationSeconds(ctx context.Context, department, priority, appointmentType string) (int64, error) {
	if c.baseURL == "" {
		return 0, ErrNotConfigured
	}

	ctx, span := tracer.Start(ctx, "prediction.estimate")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.department", department),
		attribute.String("clinic.priority", priority),
	)

	body, err := json.Marshal(estimateRequest{
		Department:      department,
		Priority:        priority,
		AppointmentType: appointmentType,
	})
	if err != nil {
		return 0, fmt.Errorf("prediction: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/estimates", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("prediction: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("prediction: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("prediction: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return 0, fmt.Errorf("prediction: estimate service returned %d: %s", resp.StatusCode, msg)
	}

	var out estimateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("prediction: decode response: %w", err)
	}
	if out.PredictedDurationSeconds <= 0 {
		return 0, ErrNoEstimate
	}

	c.logger.Debug("duration estimate received",
		"department", department,
		"predicted_duration_seconds", out.PredictedDurationSeconds,
		"confidence", out.Confidence,
	)
	return out.PredictedDurationSeconds, nil
}
