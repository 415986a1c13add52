package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/koopa0/canvas/internal/artifact"
	"github.com/koopa0/canvas/internal/engine"
	"github.com/koopa0/canvas/internal/index"
)

// NewListCmd creates the list command (factory pattern).
func NewListCmd(a *app) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a conversation's artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), a, conversationID)
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation UUID (required)")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func runList(ctx context.Context, a *app, conversationRaw string) error {
	conversationID, err := uuid.Parse(conversationRaw)
	if err != nil {
		return fmt.Errorf("parsing conversation id: %w", err)
	}

	artifacts, err := a.coordinator.List(ctx, conversationID)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No artifacts.")
		return nil
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})
	for _, art := range artifacts {
		fmt.Printf("%s  v%-2d  %-8s  %-9s  %s\n",
			art.ID, art.Version, art.Type, art.SyncStatus, art.Title)
	}
	return nil
}

// NewShowCmd creates the show command (factory pattern).
func NewShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <artifact-id>",
		Short: "Show an artifact's metadata and content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), a, args[0])
		},
	}
}

func runShow(ctx context.Context, a *app, idRaw string) error {
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return fmt.Errorf("parsing artifact id: %w", err)
	}

	art, err := a.coordinator.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:       %s\n", art.ID)
	fmt.Printf("Title:    %s (v%d)\n", art.Title, art.Version)
	fmt.Printf("Type:     %s", art.Type)
	if art.Language != "" {
		fmt.Printf(" (%s)", art.Language)
	}
	fmt.Println()
	fmt.Printf("Status:   %s\n", art.SyncStatus)
	fmt.Printf("Checksum: %s\n", art.Checksum)
	if art.GroupID != nil {
		fmt.Printf("Group:    %s\n", art.GroupID)
	}
	fmt.Printf("Updated:  %s\n", art.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println()
	fmt.Println(art.Content)
	return nil
}

// NewEditCmd creates the edit command (factory pattern).
func NewEditCmd(a *app) *cobra.Command {
	var (
		file     string
		checksum string
	)
	cmd := &cobra.Command{
		Use:   "edit <artifact-id>",
		Short: "Replace an artifact's content under optimistic concurrency",
		Long: `Edit replaces an artifact's content with the contents of --file. The
write succeeds only if the stored checksum still equals --checksum (the
checksum printed by 'canvas show'). When another writer got there first
the edit reports a conflict instead of overwriting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), a, args[0], file, checksum)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the new content (required)")
	cmd.Flags().StringVar(&checksum, "checksum", "", "checksum observed before editing (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("checksum")
	return cmd
}

func runEdit(ctx context.Context, a *app, idRaw, file, checksum string) error {
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return fmt.Errorf("parsing artifact id: %w", err)
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	res, err := a.coordinator.Update(ctx, id, string(content), checksum)
	if err != nil {
		return err
	}
	if res.Status == artifact.StatusSynced && res.Artifact.MessageID != nil {
		a.index.Invalidate(*res.Artifact.MessageID)
	}
	return printUpdateResult(res)
}

// NewDeleteCmd creates the delete command (factory pattern).
func NewDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <artifact-id>",
		Short: "Delete an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), a, args[0])
		},
	}
}

func runDelete(ctx context.Context, a *app, idRaw string) error {
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return fmt.Errorf("parsing artifact id: %w", err)
	}

	// Read first so the owning message's cached list can be dropped after
	// the delete. An already-absent artifact still deletes cleanly.
	art, err := a.coordinator.Get(ctx, id)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return err
	}

	if err := a.coordinator.Delete(ctx, id); err != nil {
		return err
	}
	if art != nil && art.MessageID != nil {
		a.index.Invalidate(*art.MessageID)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

// NewReorderCmd creates the reorder command (factory pattern).
func NewReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <message-id> <artifact-id>=<order> ...",
		Short: "Reorder a message's artifacts",
		Long: `Reorder assigns new display orders to a message's artifacts. The
mapping must cover every artifact of the message and the new orders must
be a permutation of the existing ones; invalid mappings are rejected as a
whole.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReorder(cmd.Context(), a, args[0], args[1:])
		},
	}
}

func runReorder(ctx context.Context, a *app, messageRaw string, pairs []string) error {
	messageID, err := uuid.Parse(messageRaw)
	if err != nil {
		return fmt.Errorf("parsing message id: %w", err)
	}

	mapping := make(map[uuid.UUID]int, len(pairs))
	for _, pair := range pairs {
		idRaw, orderRaw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not <artifact-id>=<order>", index.ErrInvalidReorder, pair)
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return fmt.Errorf("parsing artifact id %q: %w", idRaw, err)
		}
		order, err := strconv.Atoi(orderRaw)
		if err != nil {
			return fmt.Errorf("parsing order %q: %w", orderRaw, err)
		}
		mapping[id] = order
	}

	applied, conflict, err := a.coordinator.Reorder(ctx, messageID, mapping)
	if err != nil {
		return err
	}
	a.index.Invalidate(messageID)

	if conflict != nil {
		fmt.Printf("Reorder aborted: artifact %s was edited concurrently (checksum %s -> %s). Re-run after reviewing.\n",
			conflict.ID, conflict.ExpectedChecksum, conflict.ActualChecksum)
		return nil
	}
	fmt.Printf("Reordered %d artifact(s):\n", len(applied))
	for _, art := range applied {
		fmt.Printf("  %d. %s  %s\n", art.Order, art.ID, art.Title)
	}
	return nil
}

// NewReconcileCmd creates the reconcile command (factory pattern).
func NewReconcileCmd(a *app) *cobra.Command {
	var (
		strategy string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "reconcile <artifact-id>",
		Short: "Resolve a conflicted artifact",
		Long: `Reconcile resolves a conflicted artifact. Strategies:

  server-wins  keep the stored content
  client-wins  replace with the contents of --file
  merged       replace with manually merged content from --file`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), a, args[0], strategy, file)
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(engine.ResolutionServerWins),
		"resolution strategy: server-wins, client-wins, merged")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with resolved content (client-wins and merged)")
	return cmd
}

func runReconcile(ctx context.Context, a *app, idRaw, strategy, file string) error {
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return fmt.Errorf("parsing artifact id: %w", err)
	}

	res := engine.Resolution{Strategy: engine.ResolutionStrategy(strategy)}
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		res.Content = string(content)
	}

	result, err := a.coordinator.Reconcile(ctx, id, res)
	if err != nil {
		return err
	}
	return printUpdateResult(result)
}

func printUpdateResult(res *engine.UpdateResult) error {
	switch res.Status {
	case artifact.StatusSynced:
		fmt.Printf("Synced %s (checksum %s)\n", res.Artifact.ID, res.Artifact.Checksum)
		return nil
	case artifact.StatusConflict:
		c := res.Conflict
		fmt.Printf("Conflict on %s: expected checksum %s, store has %s.\n",
			c.ID, c.ExpectedChecksum, c.ActualChecksum)
		fmt.Println("The stored content was kept. Run 'canvas show' to inspect it,")
		fmt.Println("then 'canvas reconcile' to resolve.")
		return nil
	default:
		return fmt.Errorf("unexpected update status %q", res.Status)
	}
}
