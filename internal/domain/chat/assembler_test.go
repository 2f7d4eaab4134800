package chat_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func TestAssemblerWSAVAScenario(t *testing.T) {
	clock := newClock()
	const question = "What is the WSAVA vaccination protocol for dogs?"
	asm := chat.NewAssembler(question, locale.English, nil, chat.AssemblerOptions{Now: clock.now})

	upd := asm.Apply(chat.Event{Status: chat.StatusTranslating})
	require.Equal(t, chat.UpdateStep, upd.Kind)
	assert.Equal(t, "Languages", upd.Step.Icon)
	assert.Equal(t, "Understanding your question", asm.LoadingStatus())

	clock.advance(300 * time.Millisecond)
	upd = asm.Apply(chat.Event{Status: chat.StatusSearching})
	assert.Equal(t, "Search", upd.Step.Icon)

	clock.advance(700 * time.Millisecond)
	upd = asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "WSAVA "})
	require.Equal(t, chat.UpdateMessageCreated, upd.Kind)
	require.NotNil(t, upd.Message)
	assert.True(t, upd.Message.IsStreaming)
	assert.Equal(t, "WSAVA ", upd.Message.Content)
	require.Len(t, upd.Message.ThinkingSteps, 2)
	assert.Equal(t, int64(300), upd.Message.ThinkingSteps[0].Duration)
	assert.Equal(t, int64(700), upd.Message.ThinkingSteps[1].Duration)
	assert.Empty(t, asm.LoadingStatus())

	upd = asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "recommends..."})
	require.Equal(t, chat.UpdateDelta, upd.Kind)
	assert.Equal(t, "WSAVA recommends...", upd.Content)

	upd = asm.Apply(chat.Event{
		Status: chat.StatusReferencesReady,
		Answer: "WSAVA recommends {{citation:0}}...",
		References: []chat.WireReference{
			{Title: "WSAVA Vaccination Guidelines", Source: "J Small Anim Pract", Year: "2016"},
		},
	})
	require.Equal(t, chat.UpdateReferences, upd.Kind)
	assert.Equal(t, "WSAVA recommends {{citation:0}}...", upd.Content)
	assert.Equal(t, []chat.Segment{
		{Type: chat.SegmentText, Text: "WSAVA recommends "},
		{Type: chat.SegmentCitation, Indices: []int{0}},
		{Type: chat.SegmentText, Text: "..."},
	}, upd.Segments)

	upd = asm.Apply(chat.Event{Status: chat.StatusFollowupReady, FollowupQuestions: []string{"Core vaccines?", "Puppy schedule?"}})
	require.Equal(t, chat.UpdateFollowups, upd.Kind)

	upd = asm.Apply(chat.Event{Status: chat.StatusDone, ContextChunks: json.RawMessage(`[{"id":"c1"}]`)})
	require.Equal(t, chat.UpdateDone, upd.Kind)

	msgs := asm.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role)
	assert.Equal(t, question, msgs[0].Content)
	assert.Equal(t, conversation.RoleAssistant, msgs[1].Role)
	assert.False(t, msgs[1].IsStreaming)
	assert.Len(t, msgs[1].FollowupQuestions, 2)
	require.Len(t, msgs[1].References, 1)
	assert.Equal(t, "2016", msgs[1].References[0].Year)

	out := asm.Outcome()
	assert.True(t, out.Persistable())
	assert.JSONEq(t, `[{"id":"c1"}]`, string(out.ContextChunks))
	assert.Equal(t, "WSAVA recommends {{citation:0}}...", out.AssistantMessage.Content)
	assert.Len(t, out.AssistantMessage.FollowupQuestions, 2)
}

func TestAssemblerReferencesReplaceContent(t *testing.T) {
	asm := chat.NewAssembler("q", locale.English, nil, chat.AssemblerOptions{})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "draft answer"})
	upd := asm.Apply(chat.Event{Status: chat.StatusReferencesReady, Answer: "final {{citation:0}}", References: []chat.WireReference{{Title: "t"}}})

	assert.Equal(t, "final {{citation:0}}", upd.Content)
	msgs := asm.Messages()
	assert.Equal(t, "final {{citation:0}}", msgs[len(msgs)-1].Content)
}

func TestAssemblerReferencesFallBackToBuffer(t *testing.T) {
	asm := chat.NewAssembler("q", locale.English, nil, chat.AssemblerOptions{})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "streamed "})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "text"})
	upd := asm.Apply(chat.Event{Status: chat.StatusReferencesReady, References: []chat.WireReference{{Title: "t"}}})

	assert.Equal(t, "streamed text", upd.Content)
	assert.Equal(t, "streamed text", asm.Outcome().Answer)
}

func TestAssemblerWithoutReferencesIsNotPersistable(t *testing.T) {
	asm := chat.NewAssembler("q", locale.English, nil, chat.AssemblerOptions{})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "answer"})
	asm.Apply(chat.Event{Status: chat.StatusReferencesReady, Answer: "answer"})
	asm.Apply(chat.Event{Status: chat.StatusDone})

	assert.False(t, asm.Outcome().Persistable())
}

func TestAssemblerFollowupsClearEarlierMessages(t *testing.T) {
	transcript := []conversation.Message{
		{Role: conversation.RoleUser, Content: "first"},
		{Role: conversation.RoleAssistant, Content: "a1", FollowupQuestions: []string{"old"}},
	}
	asm := chat.NewAssembler("second", locale.English, transcript, chat.AssemblerOptions{})

	msgs := asm.Messages()
	assert.Empty(t, msgs[1].FollowupQuestions, "a new question hides earlier suggestions")
	assert.Equal(t, []string{"old"}, transcript[1].FollowupQuestions, "caller transcript is not mutated")

	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "a2"})
	asm.Apply(chat.Event{Status: chat.StatusFollowupReady, FollowupQuestions: []string{"new 1", "new 2"}})

	carriers := 0
	for _, m := range asm.Messages() {
		if len(m.FollowupQuestions) > 0 {
			carriers++
			assert.Equal(t, "a2", m.Content)
		}
	}
	assert.Equal(t, 1, carriers)
}

func TestAssemblerOutOfScope(t *testing.T) {
	transcript := []conversation.Message{
		{Role: conversation.RoleUser, Content: "How do I treat otitis?"},
		{Role: conversation.RoleAssistant, Content: "Cleaning and topical therapy."},
	}
	const question = "What's the weather tomorrow?"
	asm := chat.NewAssembler(question, locale.English, transcript, chat.AssemblerOptions{})

	asm.Apply(chat.Event{Status: chat.StatusTranslating})
	upd := asm.Apply(chat.Event{Status: chat.StatusOutOfScope})
	require.Equal(t, chat.UpdateOutOfScope, upd.Kind)
	assert.True(t, upd.Stop)
	assert.Empty(t, asm.LoadingStatus())

	msgs := asm.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Cleaning and topical therapy.", msgs[1].Content, "earlier answers are untouched")
	last := msgs[2]
	assert.True(t, last.IsOutOfScope)
	assert.False(t, last.IsStreaming)
	assert.Empty(t, last.Content)
	for _, m := range msgs {
		assert.NotEqual(t, question, m.Content)
	}

	upd = asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "late"})
	assert.Equal(t, chat.UpdateIgnored, upd.Kind)
	assert.False(t, asm.Outcome().Persistable())
}

func TestAssemblerErrorEvent(t *testing.T) {
	asm := chat.NewAssembler("q", locale.Korean, nil, chat.AssemblerOptions{})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "partial"})
	upd := asm.Apply(chat.Event{Status: chat.StatusError, Message: "backend exploded"})

	require.Equal(t, chat.UpdateError, upd.Kind)
	assert.True(t, upd.Stop)
	msgs := asm.Messages()
	assert.Equal(t, "backend exploded", msgs[len(msgs)-1].Content)
	assert.False(t, msgs[len(msgs)-1].IsStreaming)
}

func TestAssemblerErrorEventFallback(t *testing.T) {
	asm := chat.NewAssembler("q", locale.Korean, nil, chat.AssemblerOptions{})
	upd := asm.Apply(chat.Event{Status: chat.StatusError})

	assert.Equal(t, locale.Text(locale.KeyScopeFallback, locale.Korean), upd.Content)
	msgs := asm.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleAssistant, msgs[1].Role)
}

func TestAssemblerCancelExactlyOnce(t *testing.T) {
	asm := chat.NewAssembler("q", locale.English, nil, chat.AssemblerOptions{})
	asm.Apply(chat.Event{Status: chat.StatusStreaming, Chunk: "partial"})

	upd, ok := asm.Cancel()
	require.True(t, ok)
	assert.Equal(t, chat.UpdateCancelled, upd.Kind)
	assert.Equal(t, "_Request cancelled._", upd.Content)

	_, ok = asm.Cancel()
	assert.False(t, ok)
	_, ok = asm.Fail()
	assert.False(t, ok)

	notices := 0
	for _, m := range asm.Messages() {
		switch m.Content {
		case "_Request cancelled._":
			notices++
		case "Sorry, an error occurred while generating the response.":
			t.Fatal("generic error added after cancellation")
		}
	}
	assert.Equal(t, 1, notices)
	assert.True(t, asm.Outcome().Cancelled)
}

func TestAssemblerFail(t *testing.T) {
	asm := chat.NewAssembler("q", locale.Japanese, nil, chat.AssemblerOptions{})
	upd, ok := asm.Fail()
	require.True(t, ok)
	assert.Equal(t, "Sorry, an error occurred while generating the response.", upd.Content)

	_, ok = asm.Cancel()
	assert.False(t, ok)
}

func TestAssemblerSkipUserMessage(t *testing.T) {
	transcript := []conversation.Message{{Role: conversation.RoleUser, Content: "Q"}}
	asm := chat.NewAssembler("Q", locale.English, transcript, chat.AssemblerOptions{SkipUserMessage: true})

	_, ok := asm.UserMessage()
	assert.False(t, ok)
	assert.Len(t, asm.Messages(), 1)
}

func TestAssemblerIgnoresUnknownStatus(t *testing.T) {
	asm := chat.NewAssembler("q", locale.English, nil, chat.AssemblerOptions{})
	upd := asm.Apply(chat.Event{Status: "rerank"})
	assert.Equal(t, chat.UpdateIgnored, upd.Kind)
	assert.False(t, upd.Stop)
}

func TestAssemblerLocalizedSteps(t *testing.T) {
	asm := chat.NewAssembler("q", locale.Korean, nil, chat.AssemblerOptions{})
	upd := asm.Apply(chat.Event{Status: chat.StatusGenerating})
	assert.Equal(t, "Sparkles", upd.Step.Icon)
	assert.Equal(t, locale.Text(locale.KeyGenerating, locale.Korean), upd.Step.Text)

	upd = asm.Apply(chat.Event{Status: chat.StatusEmbedding})
	assert.Equal(t, "Network", upd.Step.Icon)
}
