package chat

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"ruleout-server/internal/domain/conversation"
)

// Status is the discriminator of an upstream Q&A event.
type Status string

const (
	StatusTranslating     Status = "translating"
	StatusEmbedding       Status = "embedding"
	StatusSearching       Status = "searching"
	StatusGenerating      Status = "generating"
	StatusStreaming       Status = "streaming"
	StatusReferencesReady Status = "references_ready"
	StatusFollowupReady   Status = "followup_ready"
	StatusOutOfScope      Status = "out_of_scope"
	StatusDone            Status = "done"
	StatusError           Status = "error"
)

// Event is one decoded `data:` line of the Q&A stream.
type Event struct {
	Status            Status          `json:"status"`
	Chunk             string          `json:"chunk,omitempty"`
	Answer            string          `json:"answer,omitempty"`
	References        []WireReference `json:"references,omitempty"`
	FollowupQuestions []string        `json:"followup_questions,omitempty"`
	ContextChunks     json.RawMessage `json:"context_chunks,omitempty"`
	Message           string          `json:"message,omitempty"`
}

// WireReference is a reference as the Q&A backend sends it. Year, page and
// authors arrive as strings, numbers or lists depending on the source index.
type WireReference struct {
	Title   FlexString `json:"title"`
	Source  FlexString `json:"source"`
	Year    FlexString `json:"year"`
	DOI     FlexString `json:"doi,omitempty"`
	URL     FlexString `json:"url,omitempty"`
	Authors FlexString `json:"authors,omitempty"`
	Journal FlexString `json:"journal,omitempty"`
	Text    FlexString `json:"text,omitempty"`
	Page    FlexString `json:"page,omitempty"`
}

// Reference converts the wire form into the stored form.
func (w WireReference) Reference() conversation.Reference {
	page, _ := strconv.Atoi(string(w.Page))
	return conversation.Reference{
		Title:   string(w.Title),
		Source:  string(w.Source),
		Year:    string(w.Year),
		DOI:     string(w.DOI),
		URL:     string(w.URL),
		Authors: string(w.Authors),
		Journal: string(w.Journal),
		Text:    string(w.Text),
		Page:    page,
	}
}

// ConvertReferences maps wire references to stored references. A nil input
// yields an empty, non-nil slice.
func ConvertReferences(in []WireReference) []conversation.Reference {
	out := make([]conversation.Reference, 0, len(in))
	for _, ref := range in {
		out = append(out, ref.Reference())
	}
	return out
}

// FlexString decodes a JSON string, number, bool, or array of those into a
// string. Arrays are joined with ", ". null decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				parts = append(parts, string(item))
			}
		}
		*f = FlexString(strings.Join(parts, ", "))
	case '{':
		*f = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = FlexString(n.String())
			return nil
		}
		*f = FlexString(string(data))
	}
	return nil
}

// ParseEvent decodes one event payload (the text after "data: ").
func ParseEvent(payload string) (Event, error) {
	var ev Event
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
