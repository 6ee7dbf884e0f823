// Package provider implements the transport collaborator of the client.
//
// A provider performs exactly one HTTP exchange per call and reports every
// failure as a classified *apierr.Error. Retrying is left to the routing
// package.
package provider

import "context"

// Provider performs single exchanges against the Fathem API.
type Provider interface {
	// GetName returns the provider identifier used in metrics and logs
	GetName() string

	// Do sends body (JSON encoded, nil for none) to path with the given HTTP
	// method and decodes a successful response into out (nil to discard).
	Do(ctx context.Context, method, path string, body, out any) error

	// Close cleans up resources
	Close() error
}
