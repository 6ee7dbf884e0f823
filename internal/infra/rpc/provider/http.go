package provider

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

	"github.com/vietddude/fathem/internal/infra/metrics"
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
)

const (
	// UserAgent is sent with every request.
	UserAgent = "fathem-go"

	maxResponseBytes = 10 << 20
)

// HTTPProvider implements Provider over net/http.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider for the API rooted at baseURL.
func NewHTTPProvider(name, baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Do performs one exchange and classifies any failure.
func (p *HTTPProvider) Do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	metrics.RPCCallsTotal.WithLabelValues(p.name, path).Inc()

	err := p.do(ctx, method, path, body, out)

	metrics.RPCLatency.WithLabelValues(p.name, path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(p.name, apierr.KindOf(err).String()).Inc()
	}
	return err
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return apierr.Classify(apierr.LocalFailure(fmt.Errorf("marshal request: %w", err)))
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return apierr.Classify(apierr.LocalFailure(fmt.Errorf("create request: %w", err)))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apierr.Classify(apierr.NoResponseFailure(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apierr.Classify(apierr.NoResponseFailure(fmt.Errorf("read response: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.Classify(apierr.ResponseFailure(
			resp.StatusCode,
			respBody,
			resp.Header,
			fmt.Sprintf("request failed with status code %d", resp.StatusCode),
		))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &apierr.Error{
			Kind:    apierr.KindGeneric,
			Message: fmt.Sprintf("parse response: %v", err),
			Status:  resp.StatusCode,
			Details: string(respBody),
			Cause:   err,
		}
	}

	return nil
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
