package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/arzormc/warden/internal/client"
	"github.com/arzormc/warden/internal/model"
	"github.com/arzormc/warden/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printSession(snap *model.SessionSnapshot) {
	fmt.Printf("ID:          %s\n", snap.ID)
	fmt.Printf("Moderator:   %s", snap.Moderator)
	if snap.ModeratorName != "" && snap.ModeratorName != snap.Moderator {
		fmt.Printf(" (%s)", snap.ModeratorName)
	}
	fmt.Println()
	fmt.Printf("Subject:     %s", snap.Subject)
	if snap.SubjectName != "" && snap.SubjectName != snap.Subject {
		fmt.Printf(" (%s)", snap.SubjectName)
	}
	fmt.Println()
	if snap.Category != "" {
		fmt.Printf("Category:    %s\n", snap.Category)
	}
	if snap.Level != nil {
		fmt.Printf("Level:       %d (%s", snap.Level.ID, snap.Level.Type)
		if snap.Level.Duration != "" {
			fmt.Printf(":%s", snap.Level.Duration)
		}
		fmt.Println(")")
	}
	if snap.Reason != nil {
		reason := *snap.Reason
		if reason == "" {
			reason = ui.RenderMuted("(none)")
		}
		fmt.Printf("Reason:      %s\n", reason)
	}
	fmt.Printf("Silent:      %v\n", snap.Silent)
	if !snap.CreatedAt.IsZero() {
		fmt.Printf("Started At:  %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	ready := "no"
	if snap.DispatchReady {
		ready = "yes"
	}
	fmt.Printf("Ready:       %s\n", ready)
}

func printSessionList(sessions []model.SessionSnapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODERATOR\tSUBJECT\tCATEGORY\tLEVEL\tREADY")
	for _, s := range sessions {
		level := "-"
		if s.Level != nil {
			level = fmt.Sprintf("%d", s.Level.ID)
		}
		category := s.Category
		if category == "" {
			category = "-"
		}
		ready := ""
		if s.DispatchReady {
			ready = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Moderator, s.Subject, category, level, ready)
	}
	w.Flush()
	fmt.Printf("\n%d sessions\n", len(sessions))
}

func printHistory(resp *client.BrowseHistoryResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tREASON\tISSUER\tISSUED\tDURATION")
	for _, e := range resp.Entries {
		reason := e.Reason
		if len(reason) > 40 {
			reason = reason[:37] + "..."
		}
		issued := time.UnixMilli(e.TimeMillis).Format("2006-01-02 15:04")
		duration := e.Duration
		if duration == "" {
			duration = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.TypeDisplay,
			ui.RenderStatus(string(e.Status)),
			reason,
			e.Issuer,
			issued,
			duration,
		)
	}
	w.Flush()
	fmt.Printf("\n%d of %d entries for %s", len(resp.Entries), resp.Total, ui.RenderAccent(resp.Subject))
	if len(resp.Totals) > 0 {
		fmt.Print(ui.RenderMuted(fmt.Sprintf("  (bans %d, mutes %d, warns %d, kicks %d)",
			resp.Totals[model.KindBan],
			resp.Totals[model.KindMute],
			resp.Totals[model.KindWarn],
			resp.Totals[model.KindKick],
		)))
	}
	fmt.Println()
}

func printEntry(e *client.HistoryEntry) {
	fmt.Printf("ID:       %d\n", e.ID)
	fmt.Printf("Kind:     %s\n", e.TypeDisplay)
	fmt.Printf("Status:   %s\n", ui.RenderStatus(string(e.Status)))
	fmt.Printf("Subject:  %s\n", e.Subject)
	fmt.Printf("Reason:   %s\n", e.Reason)
	fmt.Printf("Issuer:   %s\n", e.Issuer)
	fmt.Printf("Issued:   %s\n", time.UnixMilli(e.TimeMillis).Format("2006-01-02 15:04:05"))
	if e.Duration != "" {
		fmt.Printf("Duration: %s\n", e.Duration)
	}
	if e.RemovedByName != "" {
		fmt.Printf("Removed:  by %s", e.RemovedByName)
		if e.RemovedAtMillis > 0 {
			fmt.Printf(" at %s", time.UnixMilli(e.RemovedAtMillis).Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func printRoster(entries []client.RosterEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODERATOR\tNAME\tIDLE\tLAST EVENT\tSESSION\tCAPTURING")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = "-"
		}
		subject := e.Subject
		if subject == "" {
			subject = "-"
		}
		capturing := ""
		if e.Capturing {
			capturing = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0fs\t%s\t%s\t%s\n",
			e.Moderator, name, e.IdleSecs, e.LastEvent, subject, capturing)
	}
	w.Flush()
	fmt.Printf("\n%d moderators\n", len(entries))
}
