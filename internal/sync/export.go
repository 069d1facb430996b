// Package sync exports the punishment history as an audit feed on an
// interval.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/arzormc/warden/internal/model"
	"github.com/arzormc/warden/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EntryCount int       `json:"entry_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// auditEntry is the exported view of a history entry. The removal column
// is decoded so the trail is readable without knowing the legacy
// encoding.
type auditEntry struct {
	*model.Entry
	Status        model.EntryStatus `json:"status"`
	RemovedReason string            `json:"removed_reason,omitempty"`
	Reissues      []reissueRecord   `json:"reissues,omitempty"`
}

type reissueRecord struct {
	Actor    string `json:"actor"`
	AtMillis int64  `json:"at_millis"`
	Reason   string `json:"reason,omitempty"`
}

// ExportJSONL writes every punishment entry from the store as JSONL to w.
// Entries sort by kind then id so consecutive exports diff cleanly.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	entries, err := s.AllEntries(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].ID < entries[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	now := time.Now()
	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  now.UTC(),
		EntryCount: len(entries),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	nowMillis := now.UnixMilli()
	for _, e := range entries {
		info := model.ParseReissueInfo(e.RemovedByReason)
		ae := auditEntry{
			Entry:         e,
			Status:        e.Status(nowMillis),
			RemovedReason: info.RemovedReason,
		}
		for _, r := range model.ParseReissues(e.RemovedByReason) {
			ae.Reissues = append(ae.Reissues, reissueRecord{
				Actor:    r.Actor,
				AtMillis: r.AtMillis,
				Reason:   r.Reason,
			})
		}
		if err := enc.Encode(record{Type: "entry", Data: ae}); err != nil {
			return fmt.Errorf("encode entry %s/%d: %w", e.Kind, e.ID, err)
		}
	}

	return nil
}
