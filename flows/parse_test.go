package flows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("10/04/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.Local), got)

	for _, bad := range []string{"2025-04-10", "31/02/2025", "10/04", "amanhã", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("10/04/2025 14:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 10, 14, 30, 0, 0, time.Local), got)

	_, err = ParseDateTime("10/04/2025")
	assert.Error(t, err)
}

func TestParsePositiveInt(t *testing.T) {
	got, err := ParsePositiveInt(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	for _, bad := range []string{"0", "-3", "1.5", "doze"} {
		_, err := ParsePositiveInt(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParsePositiveFloat(t *testing.T) {
	got, err := ParsePositiveFloat("1500,50")
	require.NoError(t, err)
	assert.InDelta(t, 1500.50, got, 0.001)

	got, err = ParsePositiveFloat("99.9")
	require.NoError(t, err)
	assert.InDelta(t, 99.9, got, 0.001)

	for _, bad := range []string{"0", "-10", "grátis"} {
		_, err := ParsePositiveFloat(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParsePeriod(t *testing.T) {
	from, to, err := ParsePeriod("01/04/2025 a 30/04/2025")
	require.NoError(t, err)
	assert.Equal(t, time.April, from.Month())
	assert.Equal(t, 30, to.Day())

	// Same day is a valid period.
	_, _, err = ParsePeriod("01/04/2025 a 01/04/2025")
	assert.NoError(t, err)

	for _, bad := range []string{"30/04/2025 a 01/04/2025", "01/04/2025", "abril a maio"} {
		_, _, err := ParsePeriod(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
