package records

import "time"

// Storage uses ISO-8601; the user-facing surface uses DD/MM/YYYY (and HH:MM
// where time matters). These layouts are the de facto wire format between the
// flows and the store: write and read paths must agree on them.
const (
	StorageDateLayout     = "2006-01-02"
	DisplayDateLayout     = "02/01/2006"
	DisplayDateTimeLayout = "02/01/2006 15:04"
)

// FormatStorageDate renders a time as an ISO-8601 date string.
func FormatStorageDate(t time.Time) string {
	return t.Format(StorageDateLayout)
}

// ParseStorageDate parses an ISO-8601 date string in the local timezone.
func ParseStorageDate(s string) (time.Time, error) {
	return time.ParseInLocation(StorageDateLayout, s, time.Local)
}

// FormatStorageDateTime renders a time as RFC 3339.
func FormatStorageDateTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// ParseStorageDateTime parses an RFC 3339 date-time string.
func ParseStorageDateTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// DisplayDate converts a stored ISO-8601 date into DD/MM/YYYY. Unparsable
// input is returned unchanged so listings never hide raw data.
func DisplayDate(stored string) string {
	if t, err := ParseStorageDate(stored); err == nil {
		return t.Format(DisplayDateLayout)
	}
	if t, err := ParseStorageDateTime(stored); err == nil {
		return t.Format(DisplayDateTimeLayout)
	}
	return stored
}
