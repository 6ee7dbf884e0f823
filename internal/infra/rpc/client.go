package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/vietddude/fathem/internal/core/domain"
	"github.com/vietddude/fathem/internal/core/validation"
	"github.com/vietddude/fathem/internal/infra/rpc/provider"
	"github.com/vietddude/fathem/internal/infra/rpc/routing"
)

const (
	DefaultBaseURL       = "https://fathom-ai-465017.el.r.appspot.com"
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 1 * time.Second
)

// API paths.
const (
	PathTrack   = "/context/track"
	PathResolve = "/context/resolve"
	PathHealth  = "/context/health"
)

// Config holds client settings. Zero values fall back to the defaults above.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
}

// Client is the high-level interface for the Fathem API.
// Every endpoint is validated locally, then sent under retry.
type Client struct {
	provider provider.Provider
	retry    RetryConfig
}

// NewClient creates a client talking HTTP to cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if err := validation.ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	p := provider.NewHTTPProvider("fathem", cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	return NewClientWithProvider(p, cfg.Retry), nil
}

// NewClientWithProvider creates a client on top of an existing provider.
func NewClientWithProvider(p provider.Provider, retry RetryConfig) *Client {
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = DefaultRetryAttempts
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = DefaultRetryDelay
	}
	return &Client{provider: p, retry: retry}
}

// TrackConversation tracks conversation progress and returns recommendations.
func (c *Client) TrackConversation(
	ctx context.Context,
	req domain.TrackConversationRequest,
) (*domain.TrackConversationResponse, error) {
	if err := validation.ValidateTrackConversationRequest(req); err != nil {
		return nil, err
	}
	return call[domain.TrackConversationResponse](ctx, c, "track", http.MethodPost, PathTrack, req)
}

// TrackConversationIncremental tracks only the messages added since the last call.
func (c *Client) TrackConversationIncremental(
	ctx context.Context,
	conversationID string,
	messages []domain.Message,
	userID string,
) (*domain.TrackConversationResponse, error) {
	return c.TrackConversation(ctx, domain.TrackConversationRequest{
		ConversationID: conversationID,
		Messages:       messages,
		UserID:         userID,
		IsIncremental:  true,
	})
}

// ResolveConversation marks a conversation as resolved.
func (c *Client) ResolveConversation(
	ctx context.Context,
	conversationID string,
) (*domain.ResolveConversationResponse, error) {
	if err := validation.ValidateConversationID(conversationID); err != nil {
		return nil, err
	}
	req := domain.ResolveConversationRequest{ConversationID: conversationID}
	return call[domain.ResolveConversationResponse](ctx, c, "resolve", http.MethodPost, PathResolve, req)
}

// CheckHealth returns the API health status.
func (c *Client) CheckHealth(ctx context.Context) (*domain.HealthCheckResponse, error) {
	return call[domain.HealthCheckResponse](ctx, c, "health", http.MethodGet, PathHealth, nil)
}

// Close releases the provider's resources.
func (c *Client) Close() error {
	return c.provider.Close()
}

func call[T any](ctx context.Context, c *Client, name, method, path string, body any) (*T, error) {
	return routing.CallWithRetry(ctx, name, c.retry, func(ctx context.Context) (*T, error) {
		var out T
		if err := c.provider.Do(ctx, method, path, body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}
