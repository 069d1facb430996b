package model

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// ReissueMarker introduces one machine-readable reissue record inside the
// legacy removed_by_reason column. The column layout is:
//
//	<human reason>
//	||REISSUE||<unixMillis>:<base64(actor)>:<base64(reason)>
//	||REISSUE||...
//
// The human reason is everything before the first marker; the most recent
// reissue is the last marker occurrence. The encoding survives unlimited
// pardon/reinstate cycles: pardon rewrites the human reason and reattaches
// the trail verbatim, reinstate appends one more record.
const ReissueMarker = "||REISSUE||"

// Reissue is one decoded audit record from the trail.
type Reissue struct {
	Actor    string
	AtMillis int64
	Reason   string
}

// ReissueInfo is the decoded view of a removed_by_reason column.
type ReissueInfo struct {
	// RemovedReason is the human-facing removal reason (text before the
	// first marker), trimmed.
	RemovedReason string
	// Latest is the most recent reissue record, zero-valued when the
	// column carries no trail.
	Latest Reissue
}

// HasReissue reports whether the column carried at least one trail record.
func (i ReissueInfo) HasReissue() bool {
	return i.Latest.AtMillis > 0
}

// ParseReissueInfo decodes a removed_by_reason value. Malformed trail
// records degrade to an empty Latest; the human reason is still recovered.
func ParseReissueInfo(raw string) ReissueInfo {
	if strings.TrimSpace(raw) == "" {
		return ReissueInfo{}
	}

	first := strings.Index(raw, ReissueMarker)
	removed := raw
	if first >= 0 {
		removed = raw[:first]
	}
	info := ReissueInfo{RemovedReason: strings.TrimSpace(removed)}

	last := strings.LastIndex(raw, ReissueMarker)
	if last < 0 {
		return info
	}

	payload := strings.TrimSpace(raw[last+len(ReissueMarker):])
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return info
	}

	at, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		at = 0
	}

	info.Latest = Reissue{
		Actor:    decodeB64(parts[1]),
		AtMillis: at,
		Reason:   decodeB64(parts[2]),
	}
	return info
}

// ParseReissues decodes every trail record in column order.
func ParseReissues(raw string) []Reissue {
	var out []Reissue
	rest := raw
	for {
		idx := strings.Index(rest, ReissueMarker)
		if idx < 0 {
			return out
		}
		rest = rest[idx+len(ReissueMarker):]

		payload := rest
		if next := strings.Index(payload, ReissueMarker); next >= 0 {
			payload = payload[:next]
		}
		parts := strings.SplitN(strings.TrimSpace(payload), ":", 3)
		if len(parts) != 3 {
			continue
		}
		at, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Reissue{
			Actor:    decodeB64(parts[1]),
			AtMillis: at,
			Reason:   decodeB64(parts[2]),
		})
	}
}

// KeepReissueTrail extracts the marker trail from an existing column value,
// so a pardon can rewrite the human reason without losing history. Returns
// "" when the column carries no trail.
func KeepReissueTrail(existing string) string {
	idx := strings.Index(existing, ReissueMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(existing[idx:])
}

// ComposePardonColumn rebuilds the column for a pardon: the new human
// reason with the existing trail reattached on its own line.
func ComposePardonColumn(newReason, existing string) string {
	combined := strings.TrimSpace(newReason)
	trail := KeepReissueTrail(existing)
	if trail != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += trail
	}
	return combined
}

// AppendReissue appends one trail record to the full existing column
// value, newline-separated. Everything already in the column, human
// reason included, is preserved byte for byte.
func AppendReissue(existing, actor string, atMillis int64, reason string) string {
	out := existing
	if strings.TrimSpace(out) != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + EncodeReissue(actor, atMillis, reason)
}

// EncodeReissue renders one trail record for appending to the column.
func EncodeReissue(actor string, atMillis int64, reason string) string {
	return ReissueMarker + strconv.FormatInt(atMillis, 10) + ":" + encodeB64(actor) + ":" + encodeB64(reason)
}

func encodeB64(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeB64(s string) string {
	if s == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(b)
}
