package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewHealthCmd creates the health command (factory pattern).
func NewHealthCmd(a *app) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Audit a conversation's artifacts",
		Long: `Health reports totals and counts by sync status for a conversation,
and flags artifacts whose stored checksum no longer matches their stored
content (corruption, distinct from a sync conflict).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), a, conversationID)
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation UUID (required)")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func runHealth(ctx context.Context, a *app, conversationRaw string) error {
	conversationID, err := uuid.Parse(conversationRaw)
	if err != nil {
		return fmt.Errorf("parsing conversation id: %w", err)
	}

	h, err := a.coordinator.Health(ctx, conversationID)
	if err != nil {
		return err
	}

	fmt.Printf("Conversation %s: %d artifact(s)\n", h.ConversationID, h.Total)
	for status, n := range h.ByStatus {
		fmt.Printf("  %-9s %d\n", status, n)
	}
	if len(h.CorruptIDs) > 0 {
		fmt.Printf("CORRUPT (%d): stored checksum does not match stored content\n", len(h.CorruptIDs))
		for _, id := range h.CorruptIDs {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
