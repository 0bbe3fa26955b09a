package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockid/guardian-server/internal/anchor"
)

func newHeadCmd(anchorPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "head",
		Short: "Print the chain height and head digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLog(*anchorPath, func(log *anchor.Log) error {
				head, height := log.Head()
				fmt.Fprintf(cmd.OutOrStdout(), "height: %d\n", height)
				fmt.Fprintf(cmd.OutOrStdout(), "head:   %s\n", head)
				return nil
			})
		},
	}
	return cmd
}
