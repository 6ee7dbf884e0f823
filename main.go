package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vietddude/fathem/internal/core/domain"
	"github.com/vietddude/fathem/internal/infra/rpc"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	FATHEM_API_KEY := os.Getenv("FATHEM_API_KEY")
	if FATHEM_API_KEY == "" {
		log.Fatalf("FATHEM_API_KEY is not set")
	}

	ctx := context.Background()

	// 1. Create client with a short retry policy
	client, err := rpc.NewClient(rpc.Config{
		APIKey:  FATHEM_API_KEY,
		BaseURL: os.Getenv("FATHEM_BASE_URL"),
		Retry: rpc.RetryConfig{
			MaxAttempts:     4,
			InitialDelay:    500 * time.Millisecond,
			MaxDelay:        10 * time.Second,
			BackoffMultiple: 2,
			OnRetry: func(err error, attempt int) {
				fmt.Printf("🔄 Attempt %d failed (%s), retrying\n", attempt, rpc.KindOf(err))
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	fmt.Println("=== Checking API health ===")

	// 2. Health check
	health, err := client.CheckHealth(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Printf("Status: %s (tracking=%s)\n\n", health.Message, health.Services.ConversationTracking)

	// 3. Track a conversation
	conversationID := fmt.Sprintf("demo_%d", time.Now().Unix())
	messages := []domain.Message{
		{Role: domain.RoleUser, Content: "My payment failed but I was charged"},
		{Role: domain.RoleAssistant, Content: "I'm sorry about that. Can you share the order number?"},
	}

	resp, err := client.TrackConversation(ctx, domain.TrackConversationRequest{
		ConversationID: conversationID,
		Messages:       messages,
	})
	if err != nil {
		report(err)
		os.Exit(1)
	}
	fmt.Printf("Issue: %s, stage: %s, escalation: %.2f\n",
		resp.Data.IssueType, resp.Data.CurrentStage, resp.Data.EscalationPoint)
	for _, r := range resp.Data.SimilarResolutions {
		fmt.Printf("  similar: %s -> %v\n", r.IssueType, r.ResolutionPath)
	}

	// 4. Send a follow-up incrementally
	_, err = client.TrackConversationIncremental(ctx, conversationID, []domain.Message{
		{Role: domain.RoleUser, Content: "Order #12345"},
	}, "")
	if err != nil {
		report(err)
	}

	// 5. Resolve
	if _, err := client.ResolveConversation(ctx, conversationID); err != nil {
		report(err)
	}

	fmt.Printf("\nTokens remaining: %d\n", resp.Data.Remaining.Tokens)
}

func report(err error) {
	var apiErr *rpc.Error
	if !errors.As(err, &apiErr) {
		log.Printf("Unexpected error: %v", err)
		return
	}

	switch apiErr.Kind {
	case rpc.KindAuthentication:
		log.Printf("Check your API key (request %s)", apiErr.RequestID)
	case rpc.KindRateLimited:
		if secs, ok := apiErr.RetryAfterHint(); ok {
			log.Printf("Rate limited, retry in %ds", secs)
		} else {
			log.Printf("Rate limited")
		}
	case rpc.KindValidation:
		log.Printf("Invalid input: %s %v", apiErr.Message, apiErr.Details)
	case rpc.KindConflict:
		log.Printf("Conversation already resolved")
	default:
		log.Printf("Failed: %v", apiErr)
	}
}
