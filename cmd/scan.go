package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command (factory pattern).
func NewScanCmd(a *app) *cobra.Command {
	var (
		conversationID string
		messageID      string
	)
	cmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "Extract artifacts from a chat message and store them",
		Long: `Scan reads a raw assistant message from a file (or stdin when no file
is given), detects artifact candidates, deduplicates near-identical
spans, and commits the survivors to the store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), a, args, conversationID, messageID)
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation UUID (required)")
	cmd.Flags().StringVarP(&messageID, "message", "m", "", "message UUID (generated when omitted)")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func runScan(ctx context.Context, a *app, args []string, conversationRaw, messageRaw string) error {
	conversationID, err := uuid.Parse(conversationRaw)
	if err != nil {
		return fmt.Errorf("parsing conversation id: %w", err)
	}
	messageID := uuid.New()
	if messageRaw != "" {
		if messageID, err = uuid.Parse(messageRaw); err != nil {
			return fmt.Errorf("parsing message id: %w", err)
		}
	}

	raw, err := readInput(args)
	if err != nil {
		return err
	}

	detected := a.detector.Detect(string(raw))
	if len(detected.Candidates) == 0 {
		fmt.Println("No artifacts detected.")
		return nil
	}

	group, err := a.grouper.GroupAndDedupe(detected)
	if err != nil {
		return fmt.Errorf("grouping candidates: %w", err)
	}

	created, err := a.coordinator.CreateFromMessage(ctx, conversationID, messageID, group)
	if err != nil {
		return fmt.Errorf("storing artifacts: %w", err)
	}
	a.index.Invalidate(messageID)

	fmt.Printf("Message %s: %d artifact(s) created (strategy: %s)\n",
		messageID, len(created), group.Strategy)
	for _, art := range created {
		fmt.Printf("  %s  v%d  %-8s  %s\n", art.ID, art.Version, art.Type, art.Title)
	}
	for _, s := range group.DuplicatesSuppressed {
		fmt.Printf("  suppressed candidate %d (duplicate of %d, similarity %.2f)\n",
			s.Index, s.DuplicateOfIndex, s.Similarity)
	}
	return nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", args[0], err)
		}
		return raw, nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return raw, nil
}
