package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/fathem/internal/core/domain"
)

var (
	conversationID string
	userID         string
	rawMessages    []string
	incremental    bool
)

var trackCmd = &cobra.Command{
	Use:      "track",
	Short:    "Track conversation progress and print recommendations",
	PreRunE:  setup,
	RunE:     runTrack,
	PostRunE: teardown,
	Example: `  fathem track --conversation conv_123 \
    --message "user:My order never arrived" \
    --message "assistant:Sorry to hear that, let me check"`,
}

var resolveCmd = &cobra.Command{
	Use:      "resolve <conversation-id>",
	Short:    "Mark a conversation as resolved",
	Args:     cobra.ExactArgs(1),
	PreRunE:  setup,
	RunE:     runResolve,
	PostRunE: teardown,
}

var healthCmd = &cobra.Command{
	Use:      "health",
	Short:    "Check API health status",
	PreRunE:  setup,
	RunE:     runHealth,
	PostRunE: teardown,
}

func init() {
	trackCmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id")
	trackCmd.Flags().StringVar(&userID, "user", "", "optional end-user id")
	trackCmd.Flags().StringArrayVar(&rawMessages, "message", nil, "message as role:content, repeatable")
	trackCmd.Flags().BoolVar(&incremental, "incremental", false, "send only new messages")

	rootCmd.AddCommand(trackCmd, resolveCmd, healthCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	messages, err := parseMessages(rawMessages)
	if err != nil {
		return err
	}

	req := domain.TrackConversationRequest{
		ConversationID: conversationID,
		Messages:       messages,
		UserID:         userID,
		IsIncremental:  incremental,
	}

	resp, err := client.TrackConversation(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runResolve(cmd *cobra.Command, args []string) error {
	resp, err := client.ResolveConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runHealth(cmd *cobra.Command, args []string) error {
	resp, err := client.CheckHealth(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

// parseMessages turns "role:content" flags into messages.
func parseMessages(raw []string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(raw))
	for i, r := range raw {
		role, content, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("message %d: expected role:content, got %q", i, r)
		}
		messages = append(messages, domain.Message{
			Role:    domain.Role(strings.TrimSpace(role)),
			Content: strings.TrimSpace(content),
		})
	}
	return messages, nil
}
