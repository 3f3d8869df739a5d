package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const dateLayout = "2006-01-02"

// naturalParser understands English dates and times such as
// "next saturday" or "tomorrow at 9am".
var naturalParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseTime reads an RFC 3339 timestamp, a YYYY-MM-DD date or an English
// expression relative to now. Empty input yields the zero time.
func parseTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, input, now.Location()); err == nil {
		return t, nil
	}

	r, err := naturalParser.Parse(strings.ToLower(input), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", input)
	}
	return r.Time, nil
}

// parseDate is parseTime reduced to a YYYY-MM-DD string.
func parseDate(input string, now time.Time) (string, error) {
	t, err := parseTime(input, now)
	if err != nil || t.IsZero() {
		return "", err
	}
	return t.Format(dateLayout), nil
}
