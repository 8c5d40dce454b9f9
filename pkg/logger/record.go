package logger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps a configured value to a Format. Anything other than exactly
// "json" is text.
func ParseFormat(s string) Format {
	if s == string(FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// IST is Indian Standard Time. It has no daylight saving, so a fixed zone
// matches Asia/Kolkata without depending on the host tz database.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// timestampLayout renders en-IN style day/month/year with a 12-hour clock,
// e.g. "10/06/2024, 10:15:03 am".
const timestampLayout = "02/01/2006, 3:04:05 pm"

// FormatTimestamp renders t in IST.
func FormatTimestamp(t time.Time) string {
	return t.In(IST).Format(timestampLayout)
}

// Record describes one completed request.
type Record struct {
	Method     string `json:"method"`
	Path       string `json:"url"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
}

// Line serializes the record as a single newline-terminated line.
func (rec Record) Line(f Format) (string, error) {
	if f == FormatJSON {
		var sb strings.Builder
		enc := json.NewEncoder(&sb)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rec); err != nil {
			return "", err
		}
		return sb.String(), nil
	}

	// The space before the newline is part of the text format.
	return fmt.Sprintf("[%s] %s %s %d \n", rec.Timestamp, rec.Method, rec.Path, rec.StatusCode), nil
}
