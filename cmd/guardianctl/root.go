package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockid/guardian-server/internal/anchor"
)

func newRootCmd() *cobra.Command {
	var anchorPath string

	cmd := &cobra.Command{
		Use:           "guardianctl",
		Short:         "Operator tooling for the BlockID Guardian anchor chain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&anchorPath, "anchors", "data/anchors", "anchor chain directory")

	cmd.AddCommand(
		newAuditCmd(&anchorPath),
		newHeadCmd(&anchorPath),
		newExportCmd(&anchorPath),
	)

	return cmd
}

// withLog opens the anchor chain for one command invocation.
func withLog(path string, fn func(*anchor.Log) error) error {
	log, err := anchor.Open(path)
	if err != nil {
		return fmt.Errorf("open anchor log at %s: %w", path, err)
	}
	defer log.Close()
	return fn(log)
}
