package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate_RejectsImpossibleDays(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		ok    bool
	}{
		{"regular", 2025, time.January, 5, true},
		{"leap day", 2024, time.February, 29, true},
		{"feb 29 non leap", 2025, time.February, 29, false},
		{"feb 30", 2024, time.February, 30, false},
		{"april 31", 2025, time.April, 31, false},
		{"day zero", 2025, time.May, 0, false},
		{"month 13", 2025, time.Month(13), 1, false},
		{"month zero", 2025, time.Month(0), 1, false},
		{"year zero", 0, time.January, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := NewDate(tt.year, tt.month, tt.day)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, Date{tt.year, tt.month, tt.day}, d)
			} else {
				assert.True(t, d.IsZero())
			}
		})
	}
}

func TestDate_OrderAndArithmetic(t *testing.T) {
	a := MustDate(2025, time.January, 31)
	b := MustDate(2025, time.February, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, MustDate(2024, time.December, 31), MustDate(2025, time.January, 10).AddDays(-10))
	assert.Equal(t, "2025-01-31", a.String())
	assert.Equal(t, "31.01.2025", a.German())
}

func TestParseISO(t *testing.T) {
	d, err := ParseISO("2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, MustDate(2025, time.January, 5), d)

	_, err = ParseISO("05.01.2025")
	assert.Error(t, err)
	_, err = ParseISO("2025-02-30")
	assert.Error(t, err)
}

func TestEarliest(t *testing.T) {
	_, ok := Earliest(nil)
	assert.False(t, ok)

	d, ok := Earliest([]Date{
		MustDate(2025, time.March, 2),
		MustDate(2024, time.December, 24),
		MustDate(2025, time.January, 1),
	})
	require.True(t, ok)
	assert.Equal(t, MustDate(2024, time.December, 24), d)
}

func TestDate_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Found Date `json:"found"`
	}{MustDate(2025, time.October, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":"2025-10-15"}`, string(out))

	var back struct {
		Found *Date `json:"found"`
	}
	require.NoError(t, json.Unmarshal(out, &back))
	require.NotNil(t, back.Found)
	assert.Equal(t, MustDate(2025, time.October, 15), *back.Found)
}
