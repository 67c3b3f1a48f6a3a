package domain

import (
	"errors"
	"testing"
)

var markets = []string{"wb", "ozon"}

func TestParseAddArgs(t *testing.T) {
	t.Parallel()

	market, article, desc, err := ParseAddArgs(markets, "wb 12345 winter jacket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market != "wb" || article != 12345 || desc != "winter jacket" {
		t.Fatalf("got %s %d %q", market, article, desc)
	}

	if _, _, d, err := ParseAddArgs(markets, "ozon 7"); err != nil || d != "" {
		t.Fatalf("no-description add: desc=%q err=%v", d, err)
	}
}

func TestParseAddArgsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args string
		want error
	}{
		{name: "empty", args: "", want: ErrSyntax},
		{name: "missing article", args: "wb", want: ErrSyntax},
		{name: "non-integer article", args: "wb abc", want: ErrSyntax},
		{name: "unlisted market", args: "amazon 123", want: ErrUnknownMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ParseAddArgs(markets, tt.args)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDelArgs(t *testing.T) {
	t.Parallel()

	market, article, err := ParseDelArgs(markets, "ozon 42")
	if err != nil || market != "ozon" || article != 42 {
		t.Fatalf("got %s %d err=%v", market, article, err)
	}

	if _, _, err := ParseDelArgs(markets, "ozon 42 extra"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("trailing args: err = %v, want ErrSyntax", err)
	}
	if _, _, err := ParseDelArgs(markets, "ebay 42"); !errors.Is(err, ErrUnknownMarket) {
		t.Fatalf("err = %v, want ErrUnknownMarket", err)
	}
}

func TestParseTimeArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		args    string
		curTZ   int
		hour    int
		minute  int
		tz      int
		wantErr bool
	}{
		{name: "time only keeps tz", args: "9:30", curTZ: 3, hour: 9, minute: 30, tz: 3},
		{name: "time with tz", args: "22:05 -4", curTZ: 0, hour: 22, minute: 5, tz: -4},
		{name: "plus-prefixed tz", args: "7:00 +5", curTZ: 0, hour: 7, minute: 0, tz: 5},
		{name: "hour out of range", args: "24:00", wantErr: true},
		{name: "minute out of range", args: "10:60", wantErr: true},
		{name: "no colon", args: "930", wantErr: true},
		{name: "empty", args: "", wantErr: true},
		{name: "tz out of range", args: "9:30 15", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, tz, err := ParseTimeArgs(tt.args, tt.curTZ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hour != tt.hour || minute != tt.minute || tz != tt.tz {
				t.Fatalf("got %d:%02d tz=%d, want %d:%02d tz=%d", hour, minute, tz, tt.hour, tt.minute, tt.tz)
			}
		})
	}
}

func TestParseTimezoneBounds(t *testing.T) {
	t.Parallel()
	for _, bad := range []string{"-13", "15", "abc", ""} {
		if _, err := ParseTimezone(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	for arg, want := range map[string]int{"-12": -12, "14": 14, "0": 0, "+3": 3} {
		got, err := ParseTimezone(arg)
		if err != nil || got != want {
			t.Fatalf("ParseTimezone(%q) = %d, %v; want %d", arg, got, err, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	modes := []string{"all", "changes"}

	m, err := ParseMode(modes, "all")
	if err != nil || m != ModeAllUpdates {
		t.Fatalf("got %v, %v", m, err)
	}
	m, err = ParseMode(modes, "changes")
	if err != nil || m != ModeChangesOnly {
		t.Fatalf("got %v, %v", m, err)
	}
	if _, err := ParseMode(modes, "loud"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}
