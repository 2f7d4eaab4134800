package conversation

import (
	"fmt"
	"strings"
)

// FormatCopy renders a message the way the copy button puts it on the
// clipboard: the answer followed by a numbered reference list.
func FormatCopy(msg Message) string {
	var b strings.Builder
	b.WriteString(msg.Content)
	if len(msg.References) == 0 {
		return b.String()
	}
	b.WriteString("\n\nReferences:\n")
	for i, ref := range msg.References {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n\n", i+1, ref.Title, ref.Source, ref.Year)
	}
	return b.String()
}
