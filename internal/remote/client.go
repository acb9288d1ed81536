// Package remote talks to an optional external list-analysis service and
// falls back to the local engine when it is unavailable.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/romuloroldao/precivox/internal/list"
)

const defaultTimeout = 15 * time.Second

// Client calls the remote analysis service.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// AnalysisRequest is the body posted to /analyze-list.
type AnalysisRequest struct {
	ListItems []list.Item `json:"listItems"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"sessionId"`
}

// AnalysisResponse is the service's answer. Only the fields the advisor
// uses are decoded.
type AnalysisResponse struct {
	Analysis struct {
		TotalCost         float64 `json:"totalCost"`
		EstimatedSavings  float64 `json:"estimatedSavings"`
		EfficiencyScore   float64 `json:"efficiencyScore"`
		RouteOptimization struct {
			CurrentRoute   []string `json:"currentRoute"`
			OptimizedRoute []string `json:"optimizedRoute"`
			TimeSaved      float64  `json:"timeSaved"`
			FuelSaved      float64  `json:"fuelSaved"`
		} `json:"routeOptimization"`
		Insights []string `json:"insights"`
		Warnings []string `json:"warnings"`
	} `json:"analysis"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggestion is a suggestion as reported by the service.
type Suggestion struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      struct {
		Savings       float64 `json:"savings"`
		TimeReduction float64 `json:"timeReduction"`
	} `json:"impact"`
	Confidence float64 `json:"confidence"`
	Actionable bool    `json:"actionable"`
	Action     *struct {
		Type       string           `json:"type"`
		Parameters ActionParameters `json:"parameters"`
	} `json:"action"`
}

// ActionParameters are the known action parameters.
type ActionParameters struct {
	ProductID   string   `json:"productId"`
	NewStore    string   `json:"newStore"`
	NewPrice    float64  `json:"newPrice"`
	NewQuantity int      `json:"newQuantity"`
	KeepStores  []string `json:"keepStores"`
}

// Analyze posts the list to the service and decodes its analysis.
func (c *Client) Analyze(ctx context.Context, items []list.Item) (*AnalysisResponse, error) {
	body, err := json.Marshal(AnalysisRequest{
		ListItems: items,
		Timestamp: time.Now().UTC(),
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/analyze-list", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var out AnalysisResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	return &out, nil
}

// Health reports whether the service answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis service health returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: defaultTimeout}
}
