package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/utils/idgen"
	"ruleout-server/internal/utils/platformerrors"
)

// StreamRequest starts one chat turn.
type StreamRequest struct {
	// UserID is empty for guests. Guest turns are never persisted.
	UserID  string
	GuestID string

	ConversationID string
	Question       string
	Language       locale.Language
	// RewriteMessageIndex regenerates the assistant message at that index.
	RewriteMessageIndex *int

	// History and ContextChunks carry the transcript for turns without a
	// stored conversation.
	History       []HistoryEntry
	ContextChunks json.RawMessage
}

// CompleteResponse is the non-streaming answer.
type CompleteResponse struct {
	Answer     string              `json:"answer"`
	References []CompleteReference `json:"references"`
}

// CompleteReference is the reduced reference shape of CompleteResponse.
type CompleteReference struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Page   int    `json:"page"`
}

// Config holds chat service settings.
type Config struct {
	HistoryWindow int
}

// Service runs chat turns against the Q&A backend.
type Service struct {
	qa       QAClient
	store    ConversationStore
	guests   GuestGate
	titler   Titler
	registry *Registry
	observer Observer
	redactor Redactor
	cfg      Config
	log      zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver reports stream lifecycle to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRedactor masks questions before they are logged.
func WithRedactor(r Redactor) Option {
	return func(s *Service) { s.redactor = r }
}

// NewService creates a chat service. guests may be nil when every caller is
// authenticated.
func NewService(qa QAClient, store ConversationStore, guests GuestGate, titler Titler, registry *Registry, cfg Config, log zerolog.Logger, opts ...Option) *Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if titler == nil {
		titler = HeuristicTitler{}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Service{
		qa:       qa,
		store:    store,
		guests:   guests,
		titler:   titler,
		registry: registry,
		observer: nopObserver{},
		cfg:      cfg,
		log:      log.With().Str("component", "chat-service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the stream registry used for cancellation.
func (s *Service) Registry() *Registry { return s.registry }

// Turn is a prepared chat turn. Run must be called exactly once.
type Turn struct {
	svc *Service
	req StreamRequest

	streamID string
	ctx      context.Context
	cancel   context.CancelFunc

	conv          *conversation.Conversation
	transcript    []conversation.Message
	history       []HistoryEntry
	contextChunks json.RawMessage
	skipUser      bool
	userSaved     bool
	// truncateFrom is the stored message index a rewrite replaces, or -1.
	truncateFrom int
}

// StreamID identifies the turn for cancellation.
func (t *Turn) StreamID() string { return t.streamID }

func (s *Service) owner(req StreamRequest) string {
	if req.UserID != "" {
		return "user:" + req.UserID
	}
	return "guest:" + req.GuestID
}

// Prepare validates the request and performs every step that may fail with
// a plain error response: the guest quota, loading the conversation,
// validating a rewrite and saving the user message of a follow-up turn.
func (s *Service) Prepare(ctx context.Context, req StreamRequest) (*Turn, error) {
	if req.Language == "" {
		req.Language = locale.English
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" && req.RewriteMessageIndex == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "question must not be empty", nil, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a01")
	}
	if req.UserID == "" && req.ConversationID != "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "sign in to continue a saved conversation", nil, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a02")
	}
	if req.RewriteMessageIndex != nil && req.ConversationID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "rewrite requires a conversation", nil, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a03")
	}

	turn := &Turn{svc: s, req: req, truncateFrom: -1}

	if req.ConversationID != "" {
		conv, err := s.store.Get(ctx, req.UserID, req.ConversationID)
		if err != nil {
			return nil, err
		}
		turn.conv = conv
		turn.transcript = conv.Messages
		turn.contextChunks = conv.ContextChunks
		turn.history = History(conv.Messages, s.cfg.HistoryWindow)
	} else {
		turn.history = lastEntries(req.History, s.cfg.HistoryWindow)
		turn.contextChunks = req.ContextChunks
	}

	if idx := req.RewriteMessageIndex; idx != nil {
		if err := turn.prepareRewrite(ctx, *idx); err != nil {
			return nil, err
		}
	}

	if req.UserID == "" && s.guests != nil {
		remaining, err := s.guests.Allow(ctx, req.GuestID)
		if err != nil {
			return nil, err
		}
		s.log.Debug().Int("remaining", remaining).Msg("guest question accepted")
	}

	if turn.conv != nil && !turn.skipUser {
		msg := conversation.Message{Role: conversation.RoleUser, Content: turn.req.Question, Timestamp: time.Now().UTC()}
		if err := s.store.AddMessage(ctx, req.UserID, turn.conv.ID, msg); err != nil {
			s.log.Warn().Err(err).Str("conversation_id", turn.conv.ID).Msg("failed to save user message")
		} else {
			turn.userSaved = true
		}
	}

	streamID, err := idgen.New(idgen.PrefixStream)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate stream id", err, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a04")
	}
	turn.streamID = streamID
	turn.ctx, turn.cancel = context.WithCancel(ctx)
	s.registry.Register(streamID, s.owner(req), turn.cancel)
	return turn, nil
}

func (t *Turn) prepareRewrite(ctx context.Context, idx int) error {
	msgs := t.transcript
	if idx < 1 || idx >= len(msgs) || msgs[idx-1].Role != conversation.RoleUser {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("message %d cannot be rewritten", idx), nil, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a05")
	}
	t.truncateFrom = idx
	t.req.Question = msgs[idx-1].Content
	t.transcript = msgs[:idx]
	t.history = History(msgs[:idx-1], t.svc.cfg.HistoryWindow)
	t.skipUser = true
	return nil
}

// Cancel stops a stream started by owner.
func (s *Service) Cancel(streamID string, userID, guestID string) bool {
	return s.registry.Cancel(streamID, s.owner(StreamRequest{UserID: userID, GuestID: guestID}))
}

// Stream prepares and runs a turn.
func (s *Service) Stream(ctx context.Context, req StreamRequest, sink Sink) (Outcome, error) {
	turn, err := s.Prepare(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return turn.Run(sink), nil
}

// Run consumes the upstream stream, forwards frames to sink and persists
// the turn when it produced a referenced answer.
func (t *Turn) Run(sink Sink) Outcome {
	s := t.svc
	defer s.registry.Done(t.streamID)
	defer t.cancel()

	s.observer.StreamStarted()
	log := s.log.With().Str("stream_id", t.streamID).Logger()
	if s.redactor != nil {
		log.Info().Str("question", s.redactor.SanitizePrompt(t.req.Question)).Str("language", string(t.req.Language)).Msg("chat turn started")
	}

	asm := NewAssembler(t.req.Question, t.req.Language, t.transcript, AssemblerOptions{SkipUserMessage: t.skipUser})

	send := func(frames ...Frame) {
		for _, f := range frames {
			if err := sink.Send(f); err != nil {
				log.Debug().Err(err).Msg("client went away")
				t.cancel()
				return
			}
		}
	}
	send(
		Frame{Type: FrameStream, StreamID: t.streamID},
		Frame{Type: FrameStatus, Status: string(StatusTranslating), Text: asm.LoadingStatus()},
	)

	t.consume(asm, send, log)
	outcome := asm.Outcome()

	switch {
	case outcome.Cancelled:
		s.observer.StreamFinished(OutcomeCancelled)
	case outcome.Failed:
		s.observer.StreamFinished(OutcomeFailed)
	case outcome.OutOfScope:
		s.observer.StreamFinished(OutcomeOutOfScope)
	case outcome.Errored:
		s.observer.StreamFinished(OutcomeError)
	default:
		s.observer.StreamFinished(OutcomeCompleted)
	}

	if outcome.Persistable() && t.req.UserID != "" {
		if frame, err := t.persist(context.WithoutCancel(t.ctx), outcome); err != nil {
			platformerrors.LogError(log, platformerrors.AsError(t.ctx, platformerrors.LayerDomain, err, "failed to persist chat turn"))
		} else {
			send(frame)
		}
	}
	return outcome
}

func (t *Turn) consume(asm *Assembler, send func(...Frame), log zerolog.Logger) {
	s := t.svc
	stop := func(cause error) {
		var (
			upd Update
			ok  bool
		)
		if t.ctx.Err() != nil {
			upd, ok = asm.Cancel()
		} else {
			log.Error().Err(cause).Msg("chat stream failed")
			upd, ok = asm.Fail()
		}
		if ok {
			send(framesFor(upd)...)
		}
	}

	contextChunks := t.contextChunks
	if len(contextChunks) == 0 {
		contextChunks = json.RawMessage("[]")
	}
	stream, err := s.qa.QueryStream(t.ctx, QueryRequest{
		Question:              t.req.Question,
		ConversationHistory:   t.history,
		PreviousContextChunks: contextChunks,
		Language:              t.req.Language,
	})
	if err != nil {
		stop(err)
		return
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			if t.ctx.Err() != nil && !asm.Stopped() && !asm.Outcome().Done {
				stop(t.ctx.Err())
			}
			return
		}
		if err != nil {
			stop(err)
			return
		}
		s.observer.EventReceived(ev.Status)
		upd := asm.Apply(ev)
		send(framesFor(upd)...)
		if upd.Stop {
			return
		}
	}
}

func (t *Turn) persist(ctx context.Context, outcome Outcome) (Frame, error) {
	s := t.svc
	uid := t.req.UserID
	assistant := outcome.AssistantMessage

	if t.conv == nil {
		conv, err := s.store.Create(ctx, uid)
		if err != nil {
			return Frame{}, err
		}
		user := conversation.Message{Role: conversation.RoleUser, Content: t.req.Question, Timestamp: time.Now().UTC()}
		if err := s.store.AddMessage(ctx, uid, conv.ID, user); err != nil {
			return Frame{}, err
		}
		if err := s.store.AddMessage(ctx, uid, conv.ID, assistant); err != nil {
			return Frame{}, err
		}
		title, err := s.store.UpdateTitle(ctx, uid, conv.ID, s.titler.Title(ctx, t.req.Question, t.req.Language))
		if err != nil {
			return Frame{}, err
		}
		if err := t.saveContext(ctx, conv.ID, outcome); err != nil {
			return Frame{}, err
		}
		return Frame{Type: FrameConversation, ConversationID: conv.ID, Title: title, Created: true}, nil
	}

	// The replaced answer and later turns stay stored until a new answer exists.
	if t.truncateFrom >= 0 {
		if err := s.store.TruncateMessages(ctx, uid, t.conv.ID, t.truncateFrom); err != nil {
			return Frame{}, err
		}
	}
	if len(assistant.FollowupQuestions) > 0 {
		if err := s.store.ClearFollowups(ctx, uid, t.conv.ID); err != nil {
			return Frame{}, err
		}
	}
	if err := s.store.AddMessage(ctx, uid, t.conv.ID, assistant); err != nil {
		return Frame{}, err
	}
	if err := t.saveContext(ctx, t.conv.ID, outcome); err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameConversation, ConversationID: t.conv.ID, Title: t.conv.Title}, nil
}

func (t *Turn) saveContext(ctx context.Context, id string, outcome Outcome) error {
	if len(outcome.ContextChunks) == 0 {
		return nil
	}
	return t.svc.store.SetContextChunks(ctx, t.req.UserID, id, outcome.ContextChunks)
}

// Complete runs a turn without streaming and returns the collected answer.
// Nothing is persisted.
func (s *Service) Complete(ctx context.Context, req StreamRequest) (*CompleteResponse, error) {
	req.RewriteMessageIndex = nil
	req.ConversationID = ""
	if req.Language == "" {
		req.Language = locale.English
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "question must not be empty", nil, "9c1e2f3a-4b5d-4e6f-8a7b-1c2d3e4f5a06")
	}
	if req.UserID == "" && s.guests != nil {
		if _, err := s.guests.Allow(ctx, req.GuestID); err != nil {
			return nil, err
		}
	}

	contextChunks := req.ContextChunks
	if len(contextChunks) == 0 {
		contextChunks = json.RawMessage("[]")
	}
	stream, err := s.qa.QueryStream(ctx, QueryRequest{
		Question:              req.Question,
		ConversationHistory:   lastEntries(req.History, s.cfg.HistoryWindow),
		PreviousContextChunks: contextChunks,
		Language:              req.Language,
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "q&a request failed")
	}
	defer stream.Close()

	var (
		answer string
		refs   []WireReference
	)
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "q&a stream failed")
		}
		switch ev.Status {
		case StatusReferencesReady:
			if ev.Answer != "" {
				answer, refs = ev.Answer, ev.References
			}
		case StatusDone:
			if ev.Answer != "" {
				answer, refs = ev.Answer, ev.References
			}
		}
	}

	resp := &CompleteResponse{Answer: answer, References: make([]CompleteReference, 0, len(refs))}
	if resp.Answer == "" {
		resp.Answer = locale.Text(locale.KeyCouldNotGenerate, req.Language)
	}
	for _, w := range refs {
		ref := w.Reference()
		resp.References = append(resp.References, CompleteReference{Source: ref.Source, Title: ref.Title, Year: ref.Year, Page: ref.Page})
	}
	return resp, nil
}

func lastEntries(entries []HistoryEntry, window int) []HistoryEntry {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}
	return append([]HistoryEntry{}, entries...)
}
