package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockid/guardian-server/internal/anchor"
)

func newAuditCmd(anchorPath *string) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Re-verify every anchor entry and report tamper evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLog(*anchorPath, func(log *anchor.Log) error {
				report, err := log.Audit(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "height: %d\n", report.Height)
				fmt.Fprintf(out, "head:   %s\n", report.Head)
				for _, e := range report.Entries {
					if e.Valid && !showAll {
						continue
					}
					state := "ok"
					if !e.Valid {
						state = "INVALID"
					}
					fmt.Fprintf(out, "%6d  %-7s  %s  %s\n", e.SequenceIndex, state, e.FileHash, e.Detail)
				}

				// Non-zero exit on tamper evidence, so cron jobs can alert.
				if !report.Valid {
					return fmt.Errorf("chain audit failed: tamper evidence found")
				}
				fmt.Fprintln(out, "chain valid")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "print every entry, not just invalid ones")

	return cmd
}
