// Package validation checks request shapes before anything is sent.
// Every failure is an apierr Validation error.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vietddude/fathem/internal/core/domain"
	"github.com/vietddude/fathem/internal/infra/rpc/apierr"
)

const maxConversationIDLength = 100

// ValidateAPIKey rejects empty or blank keys.
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return apierr.NewValidation("API key is required and must be a string", map[string]any{"field": "apiKey"})
	}
	if strings.TrimSpace(apiKey) == "" {
		return apierr.NewValidation("API key cannot be empty", map[string]any{"field": "apiKey"})
	}
	return nil
}

// ValidateConversationID requires 1 to 100 characters.
func ValidateConversationID(conversationID string) error {
	if conversationID == "" {
		return apierr.NewValidation(
			"conversationId is required and must be a string",
			map[string]any{"field": "conversationId"},
		)
	}
	if utf8.RuneCountInString(conversationID) > maxConversationIDLength {
		return apierr.NewValidation(
			fmt.Sprintf("conversationId must be between 1 and %d characters", maxConversationIDLength),
			map[string]any{"field": "conversationId", "length": utf8.RuneCountInString(conversationID)},
		)
	}
	return nil
}

// ValidateMessages requires a non-empty list of user/assistant messages with content.
func ValidateMessages(messages []domain.Message) error {
	if len(messages) == 0 {
		return apierr.NewValidation("messages array cannot be empty", map[string]any{"field": "messages"})
	}

	for i, m := range messages {
		if !m.Role.Valid() {
			return apierr.NewValidation(
				fmt.Sprintf("message at index %d must have role 'user' or 'assistant'", i),
				map[string]any{"field": "role", "index": i},
			)
		}
		if m.Content == "" {
			return apierr.NewValidation(
				fmt.Sprintf("message at index %d must have content as string", i),
				map[string]any{"field": "content", "index": i},
			)
		}
	}
	return nil
}

// ValidateTrackConversationRequest validates a full track request.
func ValidateTrackConversationRequest(req domain.TrackConversationRequest) error {
	if err := ValidateConversationID(req.ConversationID); err != nil {
		return err
	}
	return ValidateMessages(req.Messages)
}
