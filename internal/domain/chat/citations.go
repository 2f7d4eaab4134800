package chat

import (
	"regexp"
	"strconv"
	"strings"

	"ruleout-server/internal/domain/conversation"
)

var (
	citationSplitPattern = regexp.MustCompile(`\{\{citation:\d+(?:,\d+)*\}\}`)
	citationExactPattern = regexp.MustCompile(`^\{\{citation:(\d+(?:,\d+)*)\}\}$`)
)

// SegmentType distinguishes plain text from citation markers.
type SegmentType string

const (
	SegmentText     SegmentType = "text"
	SegmentCitation SegmentType = "citation"
)

// Segment is one renderable piece of an answer.
type Segment struct {
	Type    SegmentType `json:"type"`
	Text    string      `json:"text,omitempty"`
	Indices []int       `json:"indices,omitempty"`
}

// ParseCitations splits content into text and {{citation:N[,M...]}} segments.
// Once streaming has finished, text that still looks like a broken marker is
// dropped so half-formed tags never reach the reader.
func ParseCitations(content string, streaming bool) []Segment {
	var segments []Segment
	last := 0
	for _, loc := range citationSplitPattern.FindAllStringIndex(content, -1) {
		segments = appendText(segments, content[last:loc[0]], streaming)
		segments = appendCitation(segments, content[loc[0]:loc[1]], streaming)
		last = loc[1]
	}
	return appendText(segments, content[last:], streaming)
}

func appendCitation(segments []Segment, part string, streaming bool) []Segment {
	match := citationExactPattern.FindStringSubmatch(part)
	if match == nil {
		return appendText(segments, part, streaming)
	}
	// Both patterns admit digits only, so Atoi fails on overflow alone.
	var indices []int
	for _, raw := range strings.Split(match[1], ",") {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		indices = append(indices, n)
	}
	if len(indices) == 0 {
		return appendText(segments, part, streaming)
	}
	return append(segments, Segment{Type: SegmentCitation, Indices: indices})
}

func appendText(segments []Segment, part string, streaming bool) []Segment {
	if part == "" {
		return segments
	}
	if !streaming && strings.Contains(part, "citation:") && strings.Contains(part, "}}") {
		return segments
	}
	return append(segments, Segment{Type: SegmentText, Text: part})
}

// FormatCopy renders the answer and its references as clipboard text.
func FormatCopy(msg conversation.Message) string {
	return conversation.FormatCopy(msg)
}
