package hub

import (
	"bytes"
	"strings"
)

// Event: one broadcast unit, rendered to subscribers in the SSE wire
// format (id/event/data lines, blank line terminator).
type Event struct {
	ID   string
	Name string
	Data string
}

// Marshal renders the wire form. Newlines inside Data become separate
// data: lines so the payload survives framing.
func (e Event) Marshal() []byte {
	var buf bytes.Buffer
	if e.ID != "" {
		buf.WriteString("id: ")
		buf.WriteString(e.ID)
		buf.WriteByte('\n')
	}
	if e.Name != "" {
		buf.WriteString("event: ")
		buf.WriteString(e.Name)
		buf.WriteByte('\n')
	}
	for _, line := range strings.Split(e.Data, "\n") {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
