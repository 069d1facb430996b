package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arzormc/warden/internal/client"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Manage moderation sessions",
	GroupID: "sessions",
}

var (
	startModeratorName string
	startSubjectName   string
)

var sessionStartCmd = &cobra.Command{
	Use:   "start <subject>",
	Short: "Open a session against a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wardenClient.StartSession(context.Background(), &client.StartSessionRequest{
			Moderator:     moderator,
			ModeratorName: startModeratorName,
			Subject:       args[0],
			SubjectName:   startSubjectName,
		})
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}

		if !resp.Acquired {
			fmt.Printf("Subject is locked by %s; you are queued for a notification.\n", resp.Holder)
			return nil
		}
		if resp.Reused {
			fmt.Println("Resuming existing session.")
		}
		if resp.Replaced != "" {
			fmt.Printf("Replaced previous session %s.\n", resp.Replaced)
		}
		printSession(resp.Session)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := wardenClient.GetSession(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("getting session: %w", err)
		}
		if jsonOutput {
			printJSON(snap)
		} else {
			printSession(snap)
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all active sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := wardenClient.ListSessions(context.Background())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if jsonOutput {
			printJSON(sessions)
		} else {
			printSessionList(sessions)
		}
		return nil
	},
}

var sessionCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel your session and release the subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := wardenClient.CancelSession(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("cancelling session: %w", err)
		}
		if jsonOutput {
			printJSON(snap)
		} else {
			fmt.Printf("Cancelled session %s on %s.\n", snap.ID, snap.Subject)
		}
		return nil
	},
}

var sessionCategoryCmd = &cobra.Command{
	Use:   "category <id>",
	Short: "Choose a punishment category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := wardenClient.SetCategory(context.Background(), moderator, args[0])
		if err != nil {
			return fmt.Errorf("setting category: %w", err)
		}
		if jsonOutput {
			printJSON(snap)
		} else {
			printSession(snap)
		}
		return nil
	},
}

var sessionLevelCmd = &cobra.Command{
	Use:   "level <n>",
	Short: "Choose a severity level within the category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("level must be an integer: %q", args[0])
		}
		snap, err := wardenClient.SetLevel(context.Background(), moderator, n)
		if err != nil {
			return fmt.Errorf("setting level: %w", err)
		}
		if jsonOutput {
			printJSON(snap)
		} else {
			printSession(snap)
		}
		return nil
	},
}

var sessionSilentCmd = &cobra.Command{
	Use:   "silent <true|false>",
	Short: "Toggle the silent flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		silent, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("silent must be true or false: %q", args[0])
		}
		snap, err := wardenClient.SetSilent(context.Background(), moderator, silent)
		if err != nil {
			return fmt.Errorf("setting silent: %w", err)
		}
		if jsonOutput {
			printJSON(snap)
		} else {
			printSession(snap)
		}
		return nil
	},
}

var sessionReasonCmd = &cobra.Command{
	Use:   "reason",
	Short: "Prompt for the reason over chat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wardenClient.BeginReason(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("beginning reason capture: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		if resp.TimeoutSeconds > 0 {
			fmt.Printf("Type the reason in chat within %d seconds.\n", resp.TimeoutSeconds)
		} else {
			fmt.Println("Type the reason in chat.")
		}
		return nil
	},
}

var sessionDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Render the punishment command and complete the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wardenClient.Dispatch(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("dispatching: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
		} else {
			fmt.Println(resp.Command)
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:     "chat <text...>",
	Short:   "Send a chat line through capture arbitration",
	GroupID: "sessions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]
		for _, a := range args[1:] {
			text += " " + a
		}
		consumed, err := wardenClient.Chat(context.Background(), moderator, text)
		if err != nil {
			return fmt.Errorf("sending chat: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]bool{"consumed": consumed})
			return nil
		}
		if consumed {
			fmt.Println("Captured.")
		} else {
			fmt.Println("No pending capture; line passed through.")
		}
		return nil
	},
}

func init() {
	sessionStartCmd.Flags().StringVar(&startModeratorName, "name", "", "display name of the moderator")
	sessionStartCmd.Flags().StringVar(&startSubjectName, "subject-name", "", "display name of the subject")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionCategoryCmd)
	sessionCmd.AddCommand(sessionLevelCmd)
	sessionCmd.AddCommand(sessionSilentCmd)
	sessionCmd.AddCommand(sessionReasonCmd)
	sessionCmd.AddCommand(sessionDispatchCmd)
	sessionCmd.AddCommand(sessionCancelCmd)
}
