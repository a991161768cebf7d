// Package flows defines one conversation flow per bot use case, all built
// on the shared step contract: trimmed non-empty input, DD/MM/YYYY dates,
// strictly positive numbers, re-prompt with an example on bad input, and a
// terminal step that persists and ends.
package flows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	inputDateLayout     = "02/01/2006"
	inputDateTimeLayout = "02/01/2006 15:04"
	periodSeparator     = " a "
)

var errBadPeriod = errors.New("flows: invalid period")

// ParseDate parses user input in DD/MM/AAAA form.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(inputDateLayout, strings.TrimSpace(s), time.Local)
}

// ParseDateTime parses user input in "DD/MM/AAAA HH:MM" form.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(inputDateTimeLayout, strings.TrimSpace(s), time.Local)
}

// ParsePositiveInt parses a strictly positive integer.
func ParsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("flows: %d is not positive", n)
	}
	return n, nil
}

// ParsePositiveFloat parses a strictly positive decimal. A comma decimal
// separator is accepted since that is how monetary values are typed here.
func ParsePositiveFloat(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("flows: %v is not positive", f)
	}
	return f, nil
}

// ParsePeriod parses "DD/MM/AAAA a DD/MM/AAAA" and requires start ≤ end.
func ParsePeriod(s string) (from, to time.Time, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), periodSeparator, 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, errBadPeriod
	}
	from, err = ParseDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = ParseDate(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errBadPeriod
	}
	return from, to, nil
}
