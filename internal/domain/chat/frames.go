package chat

import "ruleout-server/internal/domain/conversation"

// FrameType is the `type` of a frame sent to the browser.
type FrameType string

const (
	FrameStream          FrameType = "stream"
	FrameStatus          FrameType = "status"
	FrameThinkingStep    FrameType = "thinking_step"
	FrameMessageCreated  FrameType = "message_created"
	FrameDelta           FrameType = "delta"
	FrameReferencesReady FrameType = "references_ready"
	FrameFollowupReady   FrameType = "followup_ready"
	FrameOutOfScope      FrameType = "out_of_scope"
	FrameDone            FrameType = "done"
	FrameError           FrameType = "error"
	FrameCancelled       FrameType = "cancelled"
	FrameConversation    FrameType = "conversation"
)

// Frame is one downstream event.
type Frame struct {
	Type              FrameType                  `json:"type"`
	StreamID          string                     `json:"stream_id,omitempty"`
	Status            string                     `json:"status,omitempty"`
	Text              string                     `json:"text,omitempty"`
	Step              *conversation.ThinkingStep `json:"step,omitempty"`
	Message           *conversation.Message      `json:"message,omitempty"`
	Chunk             string                     `json:"chunk,omitempty"`
	Content           string                     `json:"content,omitempty"`
	References        []conversation.Reference   `json:"references,omitempty"`
	Segments          []Segment                  `json:"segments,omitempty"`
	FollowupQuestions []string                   `json:"followup_questions,omitempty"`
	ConversationID    string                     `json:"conversation_id,omitempty"`
	Title             string                     `json:"title,omitempty"`
	Created           bool                       `json:"created,omitempty"`
}

// Sink receives frames in order. A Send error means the client is gone.
type Sink interface {
	Send(frame Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Frame) error

func (f SinkFunc) Send(frame Frame) error { return f(frame) }

func framesFor(u Update) []Frame {
	switch u.Kind {
	case UpdateStep:
		return []Frame{
			{Type: FrameStatus, Status: u.Status, Text: u.Step.Text},
			{Type: FrameThinkingStep, Step: u.Step},
		}
	case UpdateMessageCreated:
		return []Frame{{Type: FrameMessageCreated, Message: u.Message, Chunk: u.Chunk, Content: u.Content}}
	case UpdateDelta:
		return []Frame{{Type: FrameDelta, Chunk: u.Chunk, Content: u.Content}}
	case UpdateReferences:
		return []Frame{{Type: FrameReferencesReady, Content: u.Content, References: u.References, Segments: u.Segments}}
	case UpdateFollowups:
		return []Frame{{Type: FrameFollowupReady, FollowupQuestions: u.Followups}}
	case UpdateOutOfScope:
		return []Frame{{Type: FrameOutOfScope, Message: u.Message}}
	case UpdateDone:
		return []Frame{{Type: FrameDone}}
	case UpdateError:
		return []Frame{{Type: FrameError, Content: u.Content, Message: u.Message}}
	case UpdateCancelled:
		return []Frame{{Type: FrameCancelled, Content: u.Content, Message: u.Message}}
	default:
		return nil
	}
}
