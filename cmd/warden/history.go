package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arzormc/warden/internal/client"
	"github.com/spf13/cobra"
)

var (
	historyKind   string
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:     "history <subject>",
	Short:   "Browse a subject's punishment history",
	GroupID: "history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wardenClient.BrowseHistory(context.Background(), &client.BrowseHistoryRequest{
			Subject: args[0],
			Kind:    historyKind,
			Limit:   historyLimit,
			Offset:  historyOffset,
		})
		if err != nil {
			return fmt.Errorf("browsing history: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
		} else {
			printHistory(resp)
		}
		return nil
	},
}

var (
	actionReason string
	actorName    string
)

func stageAction(typ string, args []string) error {
	entryID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("entry id must be an integer: %q", args[1])
	}

	req := &client.StageActionRequest{
		Moderator: moderator,
		ActorName: actorName,
		Type:      typ,
		Kind:      args[0],
		EntryID:   entryID,
	}
	if actionReason != "" {
		req.Reason = &actionReason
	}

	resp, err := wardenClient.StageAction(context.Background(), req)
	if err != nil {
		return fmt.Errorf("staging %s: %w", typ, err)
	}
	if jsonOutput {
		printJSON(resp)
		return nil
	}
	if resp.Capturing {
		if resp.TimeoutSeconds > 0 {
			fmt.Printf("Type the reason in chat within %d seconds, then confirm.\n", resp.TimeoutSeconds)
		} else {
			fmt.Println("Type the reason in chat, then confirm.")
		}
		return nil
	}
	fmt.Printf("Staged %s of %s #%d; run \"warden confirm\" to apply.\n", typ, args[0], entryID)
	return nil
}

var pardonCmd = &cobra.Command{
	Use:     "pardon <kind> <id>",
	Short:   "Stage the removal of an active punishment",
	GroupID: "history",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stageAction("pardon", args)
	},
}

var reinstateCmd = &cobra.Command{
	Use:     "reinstate <kind> <id>",
	Short:   "Stage the re-issue of a removed punishment",
	GroupID: "history",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stageAction("reinstate", args)
	},
}

var confirmCmd = &cobra.Command{
	Use:     "confirm",
	Short:   "Apply your staged history action",
	GroupID: "history",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := wardenClient.ConfirmAction(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("confirming action: %w", err)
		}
		if jsonOutput {
			printJSON(entry)
		} else {
			printEntry(entry)
		}
		return nil
	},
}

var abortCmd = &cobra.Command{
	Use:     "abort",
	Short:   "Discard your staged history action",
	GroupID: "history",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cancelled, err := wardenClient.CancelAction(context.Background(), moderator)
		if err != nil {
			return fmt.Errorf("cancelling action: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]bool{"cancelled": cancelled})
			return nil
		}
		if cancelled {
			fmt.Println("Staged action discarded.")
		} else {
			fmt.Println("Nothing staged.")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "filter by kind (ban, mute, warn, kick)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries to return")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "entries to skip")

	for _, c := range []*cobra.Command{pardonCmd, reinstateCmd} {
		c.Flags().StringVar(&actionReason, "reason", "", "reason (omit to type it in chat)")
		c.Flags().StringVar(&actorName, "actor", "", "display name recorded on the entry")
	}
}
