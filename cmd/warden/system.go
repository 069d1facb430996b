package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:     "roster",
	Short:   "Show online moderators and their sessions",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := wardenClient.Roster(context.Background())
		if err != nil {
			return fmt.Errorf("fetching roster: %w", err)
		}
		if jsonOutput {
			printJSON(entries)
		} else {
			printRoster(entries)
		}
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:     "reload",
	Short:   "Reload the punishment layout on the server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wardenClient.Reload(context.Background())
		if err != nil {
			return fmt.Errorf("reloading layout: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Printf("Reloaded %d categories", len(resp.Categories))
		if resp.SessionsCancelled > 0 {
			fmt.Printf("; cancelled %d sessions", resp.SessionsCancelled)
		}
		fmt.Println(".")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := wardenClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Println(status)
		return nil
	},
}
