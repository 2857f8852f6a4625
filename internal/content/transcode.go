package content

import (
	"regexp"
	"strings"
)

var breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// editableDateTimeLen is the length of "2006-01-02T15:04".
const editableDateTimeLen = 16

// ToDisplay turns stored line breaks into inline <br> markers.
func ToDisplay(stored string) string {
	if stored == "" {
		return ""
	}
	return strings.ReplaceAll(stored, "\n", "<br>")
}

// ToEditable turns inline break markers (<br>, <br/>, <br />, any case) back
// into line breaks.
func ToEditable(s string) string {
	if s == "" {
		return ""
	}
	return breakTag.ReplaceAllString(s, "\n")
}

// EditableDateTime truncates a stored date-time to whole minutes so it fits a
// datetime-local control.
func EditableDateTime(s string) string {
	if len(s) > editableDateTimeLen {
		return s[:editableDateTimeLen]
	}
	return s
}
