package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PunishType is the punishment issued by a level.
type PunishType string

const (
	TypeWarn     PunishType = "WARN"
	TypeKick     PunishType = "KICK"
	TypeTempMute PunishType = "TEMPMUTE"
	TypeTempBan  PunishType = "TEMPBAN"
	TypeBan      PunishType = "BAN"
)

// ParsePunishType parses a punishment type token (case-insensitive).
func ParsePunishType(raw string) (PunishType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WARN":
		return TypeWarn, nil
	case "KICK":
		return TypeKick, nil
	case "TEMPMUTE":
		return TypeTempMute, nil
	case "TEMPBAN":
		return TypeTempBan, nil
	case "BAN":
		return TypeBan, nil
	}
	return "", fmt.Errorf("unknown punishment type %q", raw)
}

// SupportsDuration reports whether the type accepts a duration token.
func (t PunishType) SupportsDuration() bool {
	switch t {
	case TypeTempMute, TypeTempBan, TypeBan:
		return true
	}
	return false
}

// Kind returns the record kind a punishment of this type produces.
func (t PunishType) Kind() Kind {
	switch t {
	case TypeWarn:
		return KindWarn
	case TypeKick:
		return KindKick
	case TypeTempMute:
		return KindMute
	case TypeTempBan, TypeBan:
		return KindBan
	}
	return ""
}

// LevelSpec is one severity level within a category: a numeric id, the
// punishment type it issues, and an optional duration token ("30m", "7d",
// "perm"). An empty or "perm"/"permanent" token means permanent.
type LevelSpec struct {
	ID       int
	Type     PunishType
	Duration string
}

// ParseLevelSpec parses the "<id>=<TYPE>[:duration]" level format, e.g.
// "3=TEMPMUTE:30m" or "5=BAN:perm".
func ParseLevelSpec(raw string) (LevelSpec, error) {
	trimmed := strings.TrimSpace(raw)

	eq := strings.Index(trimmed, "=")
	if eq <= 0 || eq == len(trimmed)-1 {
		return LevelSpec{}, fmt.Errorf("invalid level format (missing '='): %q", raw)
	}

	id, err := strconv.Atoi(strings.TrimSpace(trimmed[:eq]))
	if err != nil {
		return LevelSpec{}, fmt.Errorf("invalid level id in %q: %w", raw, err)
	}

	rest := strings.TrimSpace(trimmed[eq+1:])
	typePart := rest
	duration := ""
	if colon := strings.Index(rest, ":"); colon >= 0 {
		typePart = strings.TrimSpace(rest[:colon])
		duration = strings.TrimSpace(rest[colon+1:])
	}

	typ, err := ParsePunishType(typePart)
	if err != nil {
		return LevelSpec{}, fmt.Errorf("invalid level %q: %w", raw, err)
	}

	if !typ.SupportsDuration() && duration != "" {
		return LevelSpec{}, fmt.Errorf("duration not allowed for %s: %q", typ, raw)
	}

	return LevelSpec{ID: id, Type: typ, Duration: duration}, nil
}

// Permanent reports whether the level's duration token denotes a permanent
// punishment. A blank token is treated as permanent.
func (l LevelSpec) Permanent() bool {
	return IsPermanentToken(l.Duration)
}

// IsPermanentToken reports whether a duration token means "no expiry".
func IsPermanentToken(token string) bool {
	t := strings.TrimSpace(token)
	return t == "" || strings.EqualFold(t, "perm") || strings.EqualFold(t, "permanent")
}

// Category groups an ordered ladder of severity levels under an id.
type Category struct {
	ID     string
	Levels []LevelSpec
}

// Level returns the level with the given id, if present.
func (c Category) Level(id int) (LevelSpec, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return LevelSpec{}, false
}
