package main

import (
	"os"
	"os/user"

	"github.com/arzormc/warden/internal/client"
	"github.com/arzormc/warden/internal/ui"
	"github.com/spf13/cobra"
)

var (
	httpURL    string
	authToken  string
	jsonOutput bool
	noColor    bool
	moderator  string

	wardenClient client.WardenClient
)

func defaultModerator() string {
	if s := os.Getenv("WARDEN_MODERATOR"); s != "" {
		return s
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("WARDEN_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "warden <command>",
	Short: "CLI client for the warden moderation service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		wardenClient = client.NewHTTPClient(httpURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if wardenClient != nil {
			wardenClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("WARDEN_AUTH_TOKEN"), "bearer token for the server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&moderator, "moderator", defaultModerator(), "moderator id acting on the server")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sessions", Title: "Sessions:"},
		&cobra.Group{ID: "history", Title: "History:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Sessions
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(chatCmd)

	// History
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pardonCmd)
	rootCmd.AddCommand(reinstateCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(abortCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
