package chat

import (
	"encoding/json"
	"strings"
	"time"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
)

// UpdateKind names the visible change produced by one applied event.
type UpdateKind string

const (
	UpdateIgnored        UpdateKind = "ignored"
	UpdateStep           UpdateKind = "thinking_step"
	UpdateMessageCreated UpdateKind = "message_created"
	UpdateDelta          UpdateKind = "delta"
	UpdateReferences     UpdateKind = "references_ready"
	UpdateFollowups      UpdateKind = "followup_ready"
	UpdateOutOfScope     UpdateKind = "out_of_scope"
	UpdateDone           UpdateKind = "done"
	UpdateError          UpdateKind = "error"
	UpdateCancelled      UpdateKind = "cancelled"
)

// Update describes what changed after an event was applied.
type Update struct {
	Kind       UpdateKind
	Status     string
	Step       *conversation.ThinkingStep
	Message    *conversation.Message
	Chunk      string
	Content    string
	References []conversation.Reference
	Segments   []Segment
	Followups  []string
	// Stop is set when no further events of this stream may be applied.
	Stop bool
}

var stepStatuses = map[Status]struct {
	icon string
	key  locale.Key
}{
	StatusTranslating: {icon: "Languages", key: locale.KeyTranslating},
	StatusEmbedding:    {icon: "Network", key: locale.KeyEmbedding},
	StatusSearching:    {icon: "Search", key: locale.KeySearching},
	StatusGenerating:   {icon: "Sparkles", key: locale.KeyGenerating},
}

// AssemblerOptions tune a single turn.
type AssemblerOptions struct {
	// SkipUserMessage is set for rewrites, where the question is already the
	// last message of the transcript.
	SkipUserMessage bool
	Now             func() time.Time
}

// Assembler folds the Q&A event stream of one turn into transcript state.
// It is not safe for concurrent use.
type Assembler struct {
	question string
	lang     locale.Language
	now      func() time.Time

	messages  []conversation.Message
	userIndex int
	// assistantIndex is the message created for this turn, or -1.
	assistantIndex int

	steps         []conversation.ThinkingStep
	buffer        strings.Builder
	loading       string
	finalAnswer   string
	references    []conversation.Reference
	followups     []string
	contextChunks json.RawMessage

	outOfScope bool
	errored    bool
	cancelled  bool
	failed     bool
	done       bool
	stopped    bool
}

// NewAssembler starts a turn on top of transcript. Followups on earlier
// assistant messages are cleared because a new question hides them.
func NewAssembler(question string, lang locale.Language, transcript []conversation.Message, opts AssemblerOptions) *Assembler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	a := &Assembler{
		question:       question,
		lang:           lang,
		now:            now,
		userIndex:      -1,
		assistantIndex: -1,
		messages:       make([]conversation.Message, 0, len(transcript)+2),
	}
	for _, m := range transcript {
		m = m.Clone()
		m.FollowupQuestions = nil
		a.messages = append(a.messages, m)
	}
	if !opts.SkipUserMessage {
		a.userIndex = len(a.messages)
		a.messages = append(a.messages, conversation.Message{
			Role:      conversation.RoleUser,
			Content:   question,
			Timestamp: now().UTC(),
		})
	}
	a.loading = locale.Text(locale.KeyTranslating, lang)
	return a
}

// Question returns the in-flight question.
func (a *Assembler) Question() string { return a.question }

// LoadingStatus is the label shown while no answer text is visible.
func (a *Assembler) LoadingStatus() string { return a.loading }

// Messages returns a copy of the transcript including this turn.
func (a *Assembler) Messages() []conversation.Message {
	out := make([]conversation.Message, len(a.messages))
	for i, m := range a.messages {
		out[i] = m.Clone()
	}
	return out
}

// UserMessage returns the user message added for this turn, if any.
func (a *Assembler) UserMessage() (conversation.Message, bool) {
	if a.userIndex < 0 || a.userIndex >= len(a.messages) {
		return conversation.Message{}, false
	}
	return a.messages[a.userIndex].Clone(), true
}

// Stopped reports whether the turn has reached a terminal state.
func (a *Assembler) Stopped() bool { return a.stopped }

func (a *Assembler) nowMillis() int64 { return a.now().UnixMilli() }

func (a *Assembler) closeLastStep(at int64) {
	if n := len(a.steps); n > 0 && a.steps[n-1].Duration == 0 {
		a.steps[n-1].Duration = at - a.steps[n-1].Timestamp
	}
}

func (a *Assembler) stepsCopy() []conversation.ThinkingStep {
	if len(a.steps) == 0 {
		return nil
	}
	return append([]conversation.ThinkingStep(nil), a.steps...)
}

func (a *Assembler) assistant() *conversation.Message {
	if a.assistantIndex < 0 {
		return nil
	}
	return &a.messages[a.assistantIndex]
}

func (a *Assembler) ensureAssistant(content string, streaming bool) *conversation.Message {
	if msg := a.assistant(); msg != nil {
		return msg
	}
	a.assistantIndex = len(a.messages)
	a.messages = append(a.messages, conversation.Message{
		Role:          conversation.RoleAssistant,
		Content:       content,
		ThinkingSteps: a.stepsCopy(),
		IsStreaming:   streaming,
		Timestamp:     a.now().UTC(),
	})
	return &a.messages[a.assistantIndex]
}

// Apply folds one event into the turn. Events after a terminal state are
// ignored.
func (a *Assembler) Apply(ev Event) Update {
	if a.stopped {
		return Update{Kind: UpdateIgnored, Stop: true}
	}

	if st, ok := stepStatuses[ev.Status]; ok {
		at := a.nowMillis()
		a.closeLastStep(at)
		step := conversation.ThinkingStep{
			Icon:      st.icon,
			Text:      locale.Text(st.key, a.lang),
			Timestamp: at,
		}
		a.steps = append(a.steps, step)
		a.loading = step.Text
		return Update{Kind: UpdateStep, Status: string(ev.Status), Step: &step}
	}

	switch ev.Status {
	case StatusStreaming:
		return a.applyChunk(ev.Chunk)
	case StatusReferencesReady:
		return a.applyReferences(ev)
	case StatusFollowupReady:
		return a.applyFollowups(ev.FollowupQuestions)
	case StatusOutOfScope:
		return a.applyOutOfScope()
	case StatusDone:
		a.loading = ""
		a.done = true
		if len(ev.ContextChunks) > 0 && string(ev.ContextChunks) != "null" {
			a.contextChunks = append(json.RawMessage(nil), ev.ContextChunks...)
		}
		return Update{Kind: UpdateDone}
	case StatusError:
		return a.applyError(ev.Message)
	default:
		return Update{Kind: UpdateIgnored}
	}
}

func (a *Assembler) applyChunk(chunk string) Update {
	a.buffer.WriteString(chunk)
	content := a.buffer.String()

	if msg := a.assistant(); msg != nil {
		msg.Content = content
		msg.IsStreaming = true
		return Update{Kind: UpdateDelta, Chunk: chunk, Content: content}
	}

	a.loading = ""
	a.closeLastStep(a.nowMillis())
	msg := a.ensureAssistant(content, true)
	created := msg.Clone()
	return Update{Kind: UpdateMessageCreated, Chunk: chunk, Content: content, Message: &created}
}

func (a *Assembler) applyReferences(ev Event) Update {
	final := ev.Answer
	if final == "" {
		final = a.buffer.String()
	}
	a.finalAnswer = final
	a.references = ConvertReferences(ev.References)

	msg := a.ensureAssistant(final, false)
	msg.Content = final
	msg.References = append([]conversation.Reference(nil), a.references...)
	msg.ThinkingSteps = a.stepsCopy()
	msg.IsStreaming = false
	a.loading = ""

	return Update{
		Kind:       UpdateReferences,
		Content:    final,
		References: msg.References,
		Segments:   ParseCitations(final, false),
	}
}

func (a *Assembler) applyFollowups(questions []string) Update {
	a.followups = append([]string(nil), questions...)
	for i := range a.messages {
		if i != a.assistantIndex && a.messages[i].Role == conversation.RoleAssistant {
			a.messages[i].FollowupQuestions = nil
		}
	}
	if msg := a.assistant(); msg != nil {
		msg.FollowupQuestions = append([]string(nil), a.followups...)
	}
	return Update{Kind: UpdateFollowups, Followups: append([]string(nil), a.followups...)}
}

func (a *Assembler) applyOutOfScope() Update {
	a.loading = ""
	a.outOfScope = true
	a.stopped = true

	kept := a.messages[:0]
	assistantIndex := -1
	for i, m := range a.messages {
		if m.Role == conversation.RoleUser && m.Content == a.question {
			continue
		}
		if i == a.assistantIndex {
			assistantIndex = len(kept)
		}
		kept = append(kept, m)
	}
	a.messages = kept
	a.userIndex = -1
	a.assistantIndex = assistantIndex

	msg := a.ensureAssistant("", false)
	msg.IsOutOfScope = true
	msg.IsStreaming = false
	msg.Content = ""
	out := msg.Clone()
	return Update{Kind: UpdateOutOfScope, Message: &out, Stop: true}
}

func (a *Assembler) applyError(message string) Update {
	a.loading = ""
	a.errored = true
	a.stopped = true
	if message == "" {
		message = locale.Text(locale.KeyScopeFallback, a.lang)
	}
	msg := a.ensureAssistant(message, false)
	msg.Content = message
	msg.IsStreaming = false
	out := msg.Clone()
	return Update{Kind: UpdateError, Content: message, Message: &out, Stop: true}
}

// Cancel ends the turn on user request. The cancellation notice is appended
// once; later calls and a later Fail are no-ops, as is cancelling a turn that
// already ended.
func (a *Assembler) Cancel() (Update, bool) {
	if a.stopped {
		return Update{Kind: UpdateIgnored, Stop: true}, false
	}
	a.cancelled = true
	a.stopped = true
	a.loading = ""
	return a.appendNotice(locale.KeyRequestCancelled, UpdateCancelled), true
}

// Fail ends the turn after a transport or decoding failure. It has no
// effect once the turn has ended.
func (a *Assembler) Fail() (Update, bool) {
	if a.stopped {
		return Update{Kind: UpdateIgnored, Stop: true}, false
	}
	a.failed = true
	a.stopped = true
	a.loading = ""
	return a.appendNotice(locale.KeyGenerationFailure, UpdateError), true
}

func (a *Assembler) appendNotice(key locale.Key, kind UpdateKind) Update {
	if msg := a.assistant(); msg != nil {
		msg.IsStreaming = false
	}
	notice := conversation.Message{
		Role:      conversation.RoleAssistant,
		Content:   locale.Text(key, locale.English),
		Timestamp: a.now().UTC(),
	}
	a.messages = append(a.messages, notice)
	out := notice.Clone()
	return Update{Kind: kind, Content: notice.Content, Message: &out, Stop: true}
}

// Outcome summarizes a finished turn.
type Outcome struct {
	Answer           string
	References       []conversation.Reference
	Followups        []string
	ContextChunks    json.RawMessage
	ThinkingSteps    []conversation.ThinkingStep
	AssistantMessage conversation.Message
	OutOfScope       bool
	Errored          bool
	Cancelled        bool
	Failed           bool
	Done             bool
}

// Persistable reports whether the turn produced an answer worth storing:
// a non-empty answer with at least one reference from a turn that ran to
// completion.
func (o Outcome) Persistable() bool {
	return o.Answer != "" && len(o.References) > 0 && !o.OutOfScope && !o.Errored && !o.Cancelled && !o.Failed
}

// Outcome returns the turn summary. AssistantMessage is the message that is
// stored when the turn is persistable.
func (a *Assembler) Outcome() Outcome {
	out := Outcome{
		Answer:        a.finalAnswer,
		References:    append([]conversation.Reference(nil), a.references...),
		Followups:     append([]string(nil), a.followups...),
		ContextChunks: a.contextChunks,
		ThinkingSteps: a.stepsCopy(),
		OutOfScope:    a.outOfScope,
		Errored:       a.errored,
		Cancelled:     a.cancelled,
		Failed:        a.failed,
		Done:          a.done,
	}
	out.AssistantMessage = conversation.Message{
		Role:              conversation.RoleAssistant,
		Content:           a.finalAnswer,
		References:        out.References,
		FollowupQuestions: out.Followups,
		ThinkingSteps:     out.ThinkingSteps,
		Timestamp:         a.now().UTC(),
	}
	return out
}
