package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:   %s\n", h.Status)
		fmt.Fprintf(out, "breaker:  %s\n", h.Browser.Breaker)
		fmt.Fprintf(out, "browsers: %d\n", h.Browser.Active)
		fmt.Fprintf(out, "uptime:   %ds\n", h.UptimeSeconds)
		fmt.Fprintf(out, "tokens:   %d issued, %d failed\n", h.Stats.TokensIssued, h.Stats.TokenFailures)
		return nil
	},
}
