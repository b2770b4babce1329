package clock_test

import (
	"strings"
	"testing"
	"time"

	"github.com/vvatanabe/scm/internal/clock"
)

func testNow(t *testing.T, now time.Time) {
	if now.IsZero() {
		t.Errorf("Now() returned zero time")
	}
	if !strings.HasSuffix(now.String(), "UTC") {
		t.Errorf("Now() did not return UTC time")
	}
}

func TestNow(t *testing.T) {
	testNow(t, clock.Now())
}

func TestRealClockNow(t *testing.T) {
	c := clock.RealClock{}
	testNow(t, c.Now())
}

func TestFormatRFC3339Nano(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 30, 0, 500, time.FixedZone("IST", 19800))
	got := clock.FormatRFC3339Nano(now)
	if got != "2024-03-01T03:00:00.0000005Z" {
		t.Errorf("FormatRFC3339Nano() = %s", got)
	}
}

func TestRFC3339NanoToTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "should parse a nanosecond timestamp",
			in:   "2024-03-01T03:00:00.0000005Z",
			want: time.Date(2024, 3, 1, 3, 0, 0, 500, time.UTC),
		},
		{
			name: "should parse a second timestamp",
			in:   "2024-03-01T03:00:00Z",
			want: time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "should return zero time for garbage",
			in:   "yesterday",
			want: time.Time{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clock.RFC3339NanoToTime(tt.in); !got.Equal(tt.want) {
				t.Errorf("RFC3339NanoToTime() = %v, want %v", got, tt.want)
			}
		})
	}
}
