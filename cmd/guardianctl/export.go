package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockid/guardian-server/internal/anchor"
)

func newExportCmd(anchorPath *string) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all anchor entries as JSONL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLog(*anchorPath, func(log *anchor.Log) error {
				var w io.Writer = cmd.OutOrStdout()
				if outputPath != "" {
					f, err := os.Create(outputPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}

				enc := json.NewEncoder(w)
				_, height := log.Head()
				for seq := int64(0); seq < height; seq++ {
					entry, err := log.GetByIndex(cmd.Context(), seq)
					if err != nil {
						return fmt.Errorf("read entry %d: %w", seq, err)
					}
					if err := enc.Encode(entry); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")

	return cmd
}
