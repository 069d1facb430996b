// Package model defines the core domain types for the warden moderation
// workflow: punishment kinds, level specifications, history entries, and
// per-moderator sessions.
package model

import "strings"

// Kind is the closed set of punishment record kinds.
type Kind string

const (
	KindBan  Kind = "ban"
	KindMute Kind = "mute"
	KindWarn Kind = "warn"
	KindKick Kind = "kick"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindBan, KindMute, KindWarn, KindKick:
		return true
	}
	return false
}

// Mutable reports whether records of this kind have a removal lifecycle.
// Kicks are instantaneous and can be neither pardoned nor reinstated.
func (k Kind) Mutable() bool {
	return k == KindBan || k == KindMute || k == KindWarn
}

// ParseKind maps free-form type text (as stored by LiteBans, e.g. "TEMPBAN")
// onto a Kind. Unknown text yields the empty kind.
func ParseKind(raw string) Kind {
	t := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(t, "BAN"):
		return KindBan
	case strings.Contains(t, "MUTE"):
		return KindMute
	case t == "WARN":
		return KindWarn
	case t == "KICK":
		return KindKick
	}
	return ""
}
