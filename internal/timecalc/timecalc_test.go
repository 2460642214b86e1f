package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/climesync/internal/timecalc"
)

func TestIsValidDuration(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"4h10m", true},
		{"0h10m", true},
		{"12h0m", true},
		{"4.0h10m", false},
		{"4h", false},
		{"10m", false},
		{"4h10m5s", false},
		{" 4h10m", false},
		{"4h10m\n", false},
		{"", false},
	}
	for _, tt := range tests {
		got := timecalc.IsValidDuration(tt.input)
		if got != tt.want {
			t.Errorf("IsValidDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1h0m", 3600},
		{"0h45m", 2700},
		{"2h30m", 9000},
		{"0h0m", 0},
	}
	for _, tt := range tests {
		got, err := timecalc.ParseDuration(tt.input)
		if err != nil {
			t.Fatalf("ParseDuration(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := timecalc.ParseDuration("1.5h0m"); err == nil {
		t.Error("ParseDuration: expected error for fractional hours")
	}
	for _, input := range []string{"9999999999999999h0m", "2562047788015215h59m"} {
		if got, err := timecalc.ParseDuration(input); err == nil {
			t.Errorf("ParseDuration(%q) = %d, want overflow error", input, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0h0m"},
		{59, "0h0m"},
		{60, "0h1m"},
		{3600, "1h0m"},
		{3661, "1h1m"},
		{5400, "1h30m"},
		{90000, "25h0m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	for h := 0; h < 30; h += 7 {
		for m := 0; m < 60; m++ {
			d := timecalc.FormatDuration(h*3600 + m*60)
			seconds, err := timecalc.ParseDuration(d)
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", d, err)
			}
			if got := timecalc.FormatDuration(seconds); got != d {
				t.Errorf("round trip %q -> %d -> %q", d, seconds, got)
			}
		}
	}
}

func TestFormatDurationHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationHHMMSS(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHHMMSS(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := timecalc.ParseDate("2016-05-04")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !d.Equal(time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", d)
	}

	for _, bad := range []string{"2016-5-4", "05/04/2016", "2016-13-01", ""} {
		if _, err := timecalc.ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q): expected error", bad)
		}
	}
}

func TestToday(t *testing.T) {
	ts := time.Date(2026, 2, 27, 23, 59, 0, 0, time.UTC)
	if got := timecalc.Today(ts); got != "2026-02-27" {
		t.Errorf("Today = %q, want %q", got, "2026-02-27")
	}
}
