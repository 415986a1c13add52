package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koopa0/canvas/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// NewVersionCmd creates the version command (factory pattern).
func NewVersionCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cfg)
		},
	}
}

func runVersion(cfg *config.Config) error {
	fmt.Printf("Canvas %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Backend: %s\n", cfg.Backend)
	if cfg.Backend == config.BackendSQLite {
		fmt.Printf("  Database: %s\n", cfg.SQLitePath)
	}
	fmt.Printf("  Similarity threshold: %.2f\n", cfg.SimilarityThreshold)
	fmt.Printf("  Max artifacts per message: %d\n", cfg.MaxArtifactsPerMessage)
	return nil
}
