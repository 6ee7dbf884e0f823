// Package rpc provides a resilient client for the Fathem conversation API.
//
// Every call is a chain of attempts driven by the routing package; each
// failed attempt is classified by apierr so callers can branch on the kind:
//   - Authentication: fix the credential
//   - RateLimited: slow down, RetryAfter holds the server's hint
//   - Validation: the input was rejected, Details lists field issues
//   - Network / Generic: infrastructure trouble, try later
//
// # Quick Start
//
//	import "github.com/vietddude/fathem/internal/infra/rpc"
//
//	client, err := rpc.NewClient(rpc.Config{APIKey: os.Getenv("FATHEM_API_KEY")})
//	if err != nil {
//	    return err
//	}
//	resp, err := client.TrackConversation(ctx, req)
//	if rpc.IsKind(err, rpc.KindRateLimited) {
//	    // back off
//	}
//
// # Package Structure
//
//   - apierr/   - Error taxonomy and classification of raw failures
//   - routing/  - Retry policy and the attempt state machine
//   - provider/ - HTTP transport performing single exchanges
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
	"github.com/vietddude/fathem/internal/infra/rpc/provider"
	"github.com/vietddude/fathem/internal/infra/rpc/routing"
)

// =============================================================================
// Re-exported types from apierr package
// =============================================================================

// Error is the classified error returned by every client method.
type Error = apierr.Error

// Kind identifies the class of an Error.
type Kind = apierr.Kind

// Error kinds
const (
	KindGeneric        = apierr.KindGeneric
	KindAuthentication = apierr.KindAuthentication
	KindRateLimited    = apierr.KindRateLimited
	KindNotFound       = apierr.KindNotFound
	KindConflict       = apierr.KindConflict
	KindValidation     = apierr.KindValidation
	KindNetwork        = apierr.KindNetwork
)

// KindOf returns the kind of err; errors outside the taxonomy are Generic.
func KindOf(err error) Kind {
	return apierr.KindOf(err)
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	return apierr.IsKind(err, kind)
}

// =============================================================================
// Re-exported types from routing and provider packages
// =============================================================================

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// Provider performs single exchanges against the API.
type Provider = provider.Provider

// HTTPProvider implements Provider over net/http.
type HTTPProvider = provider.HTTPProvider
