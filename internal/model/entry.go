package model

import "fmt"

// EntryStatus is the derived display status of a history entry.
type EntryStatus string

const (
	// StatusActive: in force and never removed.
	StatusActive EntryStatus = "ACTIVE"
	// StatusReinstated: in force again after at least one removal.
	StatusReinstated EntryStatus = "REINSTATED"
	// StatusReverted: removed and currently not in force.
	StatusReverted EntryStatus = "REVERTED"
	// StatusInactive: expired or never active.
	StatusInactive EntryStatus = "INACTIVE"
)

// Entry is one punishment record read from the store. Temporal fields are
// epoch milliseconds; UntilWasSeconds remembers whether the backing row
// stored until in seconds, so writes can restore the original unit.
type Entry struct {
	ID      int64  `json:"id"`
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
	Issuer  string `json:"issuer"`

	TimeMillis  int64 `json:"time_millis"`
	UntilMillis int64 `json:"until_millis"` // 0 = permanent
	Active      bool  `json:"active"`

	RemovedByName   string `json:"removed_by_name,omitempty"`
	RemovedByReason string `json:"removed_by_reason,omitempty"`
	RemovedAtMillis int64  `json:"removed_at_millis,omitempty"`

	UntilWasSeconds bool `json:"-"`
}

// ActiveNow reports whether the entry is in force at the given instant.
func (e Entry) ActiveNow(nowMillis int64) bool {
	if !e.Active {
		return false
	}
	return e.UntilMillis <= 0 || e.UntilMillis > nowMillis
}

// EverRemoved reports whether the entry was removed at least once: it has a
// removal date, a removal actor, or an audit trail in the removal column.
// A reinstated entry keeps only the trail, so the trail alone counts.
func (e Entry) EverRemoved() bool {
	if e.RemovedAtMillis > 0 || e.RemovedByName != "" {
		return true
	}
	info := ParseReissueInfo(e.RemovedByReason)
	return info.RemovedReason != "" || info.HasReissue()
}

// CanReinstate reports whether the entry is still temporally eligible for
// reinstatement: permanent, or not yet expired.
func (e Entry) CanReinstate(nowMillis int64) bool {
	return e.UntilMillis <= 0 || e.UntilMillis > nowMillis
}

// Status derives the display status at the given instant.
func (e Entry) Status(nowMillis int64) EntryStatus {
	removed := e.EverRemoved()
	switch {
	case removed && !e.Active:
		return StatusReverted
	case e.ActiveNow(nowMillis) && removed:
		return StatusReinstated
	case e.ActiveNow(nowMillis):
		return StatusActive
	default:
		return StatusInactive
	}
}

// Temporary reports whether the entry carries a real expiry.
func (e Entry) Temporary() bool {
	if e.UntilMillis <= 0 {
		return false
	}
	if e.TimeMillis <= 0 {
		return true
	}
	return e.UntilMillis > e.TimeMillis
}

// TypeDisplay renders the entry kind for display, distinguishing temporary
// punishments ("TEMPBAN" vs "BAN").
func (e Entry) TypeDisplay() string {
	temp := e.Temporary()
	switch e.Kind {
	case KindBan:
		if temp {
			return "TEMPBAN"
		}
		return "BAN"
	case KindMute:
		if temp {
			return "TEMPMUTE"
		}
		return "MUTE"
	case KindWarn:
		if temp {
			return "TEMPWARN"
		}
		return "WARN"
	case KindKick:
		return "KICK"
	}
	return string(e.Kind)
}

// DurationDisplay renders the entry's configured duration ("Permanent",
// "N/A" for kicks, compact form otherwise).
func (e Entry) DurationDisplay() string {
	if !e.Kind.Mutable() {
		return "N/A"
	}
	if !e.Temporary() {
		return "Permanent"
	}
	delta := e.UntilMillis - e.TimeMillis
	if delta <= 0 {
		return "Permanent"
	}
	return FormatCompactDuration(delta)
}

// FormatCompactDuration renders a millisecond span like "1d2h", "3m41s".
// Sub-second spans round up to "1s".
func FormatCompactDuration(millis int64) string {
	seconds := millis / 1000

	days := seconds / 86400
	seconds %= 86400
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60

	switch {
	case days > 0:
		if hours > 0 {
			return fmt.Sprintf("%dd%dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%ds", seconds)
}

// NormalizeEpochMillis converts a raw stored timestamp to milliseconds.
// LiteBans rows store some timestamps in seconds; anything below 1e11 is
// treated as seconds and scaled.
func NormalizeEpochMillis(raw int64) int64 {
	if raw <= 0 {
		return 0
	}
	if raw < 100_000_000_000 {
		return raw * 1000
	}
	return raw
}

// StoredUnit converts a millisecond value back to the unit a row originally
// used for its until column.
func StoredUnit(millis int64, wasSeconds bool) int64 {
	if millis <= 0 {
		return 0
	}
	if wasSeconds {
		return millis / 1000
	}
	return millis
}
