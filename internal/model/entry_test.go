package model

import "testing"

const testNow = int64(1_700_000_000_000)

func TestEntryStatus(t *testing.T) {
	for _, tc := range []struct {
		name  string
		entry Entry
		want  EntryStatus
	}{
		{
			name:  "active never removed",
			entry: Entry{Kind: KindBan, Active: true},
			want:  StatusActive,
		},
		{
			name: "active temporary not expired",
			entry: Entry{
				Kind: KindMute, Active: true,
				TimeMillis: testNow - 1000, UntilMillis: testNow + 60_000,
			},
			want: StatusActive,
		},
		{
			name: "expired",
			entry: Entry{
				Kind: KindMute, Active: true,
				TimeMillis: testNow - 120_000, UntilMillis: testNow - 60_000,
			},
			want: StatusInactive,
		},
		{
			name: "removed inactive",
			entry: Entry{
				Kind: KindBan, Active: false,
				RemovedByName: "Steve", RemovedAtMillis: testNow - 1000,
			},
			want: StatusReverted,
		},
		{
			name: "reinstated",
			entry: Entry{
				Kind: KindBan, Active: true,
				RemovedByReason: "appealed" + EncodeReissue("Steve", testNow-500, "false appeal"),
			},
			want: StatusReinstated,
		},
		{
			name: "trail reason alone marks removal",
			entry: Entry{
				Kind: KindWarn, Active: false,
				RemovedByReason: "mistake",
			},
			want: StatusReverted,
		},
		{
			name:  "inactive never removed",
			entry: Entry{Kind: KindWarn, Active: false},
			want:  StatusInactive,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.entry.Status(testNow); got != tc.want {
				t.Errorf("Status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEntryCanReinstate(t *testing.T) {
	perm := Entry{Kind: KindBan, UntilMillis: 0}
	if !perm.CanReinstate(testNow) {
		t.Error("permanent entry should be reinstatable")
	}
	future := Entry{Kind: KindMute, UntilMillis: testNow + 1000}
	if !future.CanReinstate(testNow) {
		t.Error("unexpired entry should be reinstatable")
	}
	expired := Entry{Kind: KindMute, UntilMillis: testNow - 1000}
	if expired.CanReinstate(testNow) {
		t.Error("expired entry should not be reinstatable")
	}
}

func TestEntryTypeDisplay(t *testing.T) {
	for _, tc := range []struct {
		entry Entry
		want  string
	}{
		{Entry{Kind: KindBan}, "BAN"},
		{Entry{Kind: KindBan, TimeMillis: 100, UntilMillis: 200}, "TEMPBAN"},
		{Entry{Kind: KindMute}, "MUTE"},
		{Entry{Kind: KindMute, TimeMillis: 100, UntilMillis: 200}, "TEMPMUTE"},
		{Entry{Kind: KindWarn}, "WARN"},
		{Entry{Kind: KindKick}, "KICK"},
	} {
		if got := tc.entry.TypeDisplay(); got != tc.want {
			t.Errorf("TypeDisplay(%+v) = %q, want %q", tc.entry, got, tc.want)
		}
	}
}

func TestEntryDurationDisplay(t *testing.T) {
	kick := Entry{Kind: KindKick}
	if got := kick.DurationDisplay(); got != "N/A" {
		t.Errorf("kick duration = %q", got)
	}
	perm := Entry{Kind: KindBan}
	if got := perm.DurationDisplay(); got != "Permanent" {
		t.Errorf("permanent duration = %q", got)
	}
	temp := Entry{Kind: KindMute, TimeMillis: 0, UntilMillis: 30 * 60 * 1000, Active: true}
	// TimeMillis 0 still counts as temporary; span measured from zero.
	if got := temp.DurationDisplay(); got != "30m" {
		t.Errorf("temp duration = %q", got)
	}
}

func TestFormatCompactDuration(t *testing.T) {
	for _, tc := range []struct {
		millis int64
		want   string
	}{
		{500, "1s"},
		{1000, "1s"},
		{41_000, "41s"},
		{3 * 60_000, "3m"},
		{3*60_000 + 41_000, "3m41s"},
		{2 * 3_600_000, "2h"},
		{2*3_600_000 + 30*60_000, "2h30m"},
		{26 * 3_600_000, "1d2h"},
		{24 * 3_600_000, "1d"},
		{7 * 24 * 3_600_000, "7d"},
	} {
		if got := FormatCompactDuration(tc.millis); got != tc.want {
			t.Errorf("FormatCompactDuration(%d) = %q, want %q", tc.millis, got, tc.want)
		}
	}
}

func TestNormalizeEpochMillis(t *testing.T) {
	for _, tc := range []struct {
		raw  int64
		want int64
	}{
		{0, 0},
		{-1, 0},
		{1_700_000_000, 1_700_000_000_000},  // seconds
		{1_700_000_000_000, 1_700_000_000_000}, // already millis
	} {
		if got := NormalizeEpochMillis(tc.raw); got != tc.want {
			t.Errorf("NormalizeEpochMillis(%d) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestStoredUnit(t *testing.T) {
	if got := StoredUnit(1_700_000_000_000, true); got != 1_700_000_000 {
		t.Errorf("StoredUnit seconds = %d", got)
	}
	if got := StoredUnit(1_700_000_000_000, false); got != 1_700_000_000_000 {
		t.Errorf("StoredUnit millis = %d", got)
	}
	if got := StoredUnit(0, true); got != 0 {
		t.Errorf("StoredUnit zero = %d", got)
	}
}
