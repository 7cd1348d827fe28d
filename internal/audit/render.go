package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// MaxTextBytes bounds any free-text field of a rendered record. Longer
	// text is middle-ellipsized.
	MaxTextBytes = 1024
	// MaxRecordBytes bounds one whole rendered record.
	MaxRecordBytes = 2048

	ellipsis = "..."
)

// ClampText escapes non-ASCII bytes and middle-ellipsizes the result above
// MaxTextBytes, keeping the head and tail visible.
func ClampText(s string) string {
	escaped := escapeASCII(s)
	if len(escaped) <= MaxTextBytes {
		return escaped
	}
	keep := MaxTextBytes - len(ellipsis)
	head := keep / 2
	tail := keep - head
	return escaped[:head] + ellipsis + escaped[len(escaped)-tail:]
}

func escapeASCII(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= ' ' && c <= '~' {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("\\x%02x", c))
		}
	}
	return b.String()
}

// Render serializes a record to bounded ASCII JSON for the query surface.
// The description and any textual witness or failure message are clamped
// first; if the whole record still exceeds MaxRecordBytes, the JSON itself is
// middle-ellipsized (the result is then informational, not parseable).
func Render(r *Record) string {
	clamped := *r
	clamped.Description = ClampText(r.Description)
	if r.Witness != nil {
		w := *r.Witness
		w.Text = ClampText(w.Text)
		clamped.Witness = &w
	}
	if r.Failure != nil {
		f := *r.Failure
		f.Message = ClampText(f.Message)
		clamped.Failure = &f
	}

	raw, err := json.Marshal(&clamped)
	if err != nil {
		return fmt.Sprintf(`{"render_error":%q}`, err.Error())
	}
	out := escapeASCII(string(raw))
	if len(out) <= MaxRecordBytes {
		return out
	}
	keep := MaxRecordBytes - len(ellipsis)
	head := keep / 2
	tail := keep - head
	return out[:head] + ellipsis + out[len(out)-tail:]
}
