package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "Z suffix",
			input:  "2025-12-17T14:00:00Z",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "explicit zero offset",
			input:  "2025-12-17T14:00:00+00:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "non-zero offset converted to UTC",
			input:  "2025-12-17T09:00:00-05:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "no offset assumed UTC",
			input:  "2025-12-17T14:00:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fractional seconds",
			input:  "2025-12-17T14:00:00.250Z",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 250000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separator",
			input:  "2025-12-17 14:00:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			input:  "2025-12-17",
			want:   time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "lowercase z suffix",
			input:  "2025-12-17T14:00:00z",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "hour precision",
			input:  "2025-12-17T14",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "hour precision with offset",
			input:  "2025-12-17T09-05:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "minute precision compact offset",
			input:  "2025-12-17T14:00+0000",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "minute precision compact non-zero offset",
			input:  "2025-12-17T19:30+0530",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separator hour precision",
			input:  "2025-12-17 14",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separator compact offset",
			input:  "2025-12-17 14:00:00+0000",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separator minute precision offset",
			input:  "2025-12-17 15:00+01:00",
			want:   time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "empty", input: "", wantOK: false},
		{name: "lone z", input: "z", wantOK: false},
		{name: "whitespace", input: "   ", wantOK: false},
		{name: "invalid", input: "invalid", wantOK: false},
		{name: "bad month", input: "2025-13-17T14:00:00Z", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseISO(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.True(t, got.IsZero())
				return
			}
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseISO_ZSuffixMatchesZeroOffset(t *testing.T) {
	inputs := []string{
		"2025-12-17T14:00:00",
		"2024-02-29T23:59:59.123456",
		"1999-01-01T00:00:00",
	}
	for _, in := range inputs {
		z, okZ := ParseISO(in + "Z")
		off, okOff := ParseISO(in + "+00:00")
		require.True(t, okZ, in)
		require.True(t, okOff, in)
		assert.Equal(t, off, z, in)
		assert.Equal(t, time.UTC, z.Location())
	}
}

func TestParseTabular(t *testing.T) {
	got, ok := ParseTabular("12/17/25 14:00")
	require.True(t, ok)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 17, got.Day())
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, time.UTC, got.Location())

	for _, in := range []string{"", "NaN", "nan", "N/A", "null", "2025-12-17 14:00", "12/17/2025 14:00", "13/01/25 10:00"} {
		_, ok := ParseTabular(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseTabular_CenturyPivot(t *testing.T) {
	got, ok := ParseTabular("01/01/69 00:00")
	require.True(t, ok)
	assert.Equal(t, 1969, got.Year())

	got, ok = ParseTabular("01/01/68 00:00")
	require.True(t, ok)
	assert.Equal(t, 2068, got.Year())
}

func TestParseCompact(t *testing.T) {
	got, ok := ParseCompact("2512171400")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC), got)

	// trailing characters are ignored
	got, ok = ParseCompact("2512181500. CONTACT TOWER")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 18, 15, 0, 0, 0, time.UTC), got)

	for _, in := range []string{"", "251217140", "PERM", "25121714AB", "2513171400", "+512171400"} {
		_, ok := ParseCompact(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestIsMissing(t *testing.T) {
	for _, in := range []string{"", " ", "NaN", "nan", "NA", "N/A", "#N/A", "NULL", "None", "<NA>"} {
		assert.True(t, IsMissing(in), "input %q", in)
	}
	for _, in := range []string{"KDEN", "0", "12/17/25 14:00"} {
		assert.False(t, IsMissing(in), "input %q", in)
	}
}

func TestPtr(t *testing.T) {
	assert.Nil(t, Ptr(time.Time{}, false))

	now := time.Date(2025, 12, 17, 14, 0, 0, 0, time.UTC)
	p := Ptr(now, true)
	require.NotNil(t, p)
	assert.Equal(t, now, *p)
}
