package recording

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/idgen"
	"ruleout-server/internal/utils/platformerrors"
)

const (
	// NumSpeakers is the expected speaker count: the vet and the caregiver.
	NumSpeakers    = 2
	uploadFilename = "recording.webm"
)

// ProcessRequest is a finished browser recording.
type ProcessRequest struct {
	UserID string
	Audio  []byte
	// RecordedSeconds is the duration measured by the recorder. It is used
	// when the transcript reports none.
	RecordedSeconds float64
	// Location formats the date and time fields. Nil means UTC.
	Location *time.Location
}

// Service processes and manages recordings.
type Service struct {
	repo        Repository
	store       ObjectStore
	transcriber Transcriber
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a recording service.
func NewService(repo Repository, store ObjectStore, transcriber Transcriber, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		log:         log.With().Str("component", "recording-service").Logger(),
		now:         time.Now,
	}
}

// Process transcribes the audio, uploads it and stores the metadata.
func (s *Service) Process(ctx context.Context, req ProcessRequest, progress func(Progress)) (*Recording, error) {
	if len(req.Audio) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "audio is required", nil, "e2b4c6d8-1a3f-4e5b-8c7d-9f0a1b2c3d01")
	}
	mtype := mimetype.Detect(req.Audio)
	if !isAudio(mtype) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unsupported audio type %s", mtype.String()), nil, "e2b4c6d8-1a3f-4e5b-8c7d-9f0a1b2c3d02")
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	started := s.now()
	transcript, err := s.transcriber.Transcribe(ctx, bytes.NewReader(req.Audio), uploadFilename, NumSpeakers, progress)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "transcription failed")
	}
	s.log.Info().
		Int("segments", len(transcript.Segments)).
		Float64("audio_seconds", transcript.Duration).
		Dur("elapsed", s.now().Sub(started)).
		Msg("transcription complete")

	now := s.now()
	key := fmt.Sprintf("recordings/%s/%d.webm", req.UserID, now.UnixMilli())
	url, err := s.store.Put(ctx, key, "audio/webm", bytes.NewReader(req.Audio), int64(len(req.Audio)))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upload audio")
	}

	id, err := idgen.New(idgen.PrefixRecording)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate recording id", err, "e2b4c6d8-1a3f-4e5b-8c7d-9f0a1b2c3d03")
	}

	duration := transcript.Duration
	if duration <= 0 {
		duration = req.RecordedSeconds
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	segments := transcript.Segments
	if segments == nil {
		segments = []TranscriptSegment{}
	}

	rec := &Recording{
		ID:         id,
		UserID:     req.UserID,
		Date:       FormatDate(local),
		Time:       FormatTime(local),
		Duration:   duration,
		AudioURL:   url,
		AudioKey:   key,
		Transcript: segments,
		CreatedAt:  now.UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned audio")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save recording")
	}
	return rec, nil
}

// List returns the user's recordings, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Recording, error) {
	recs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list recordings")
	}
	return recs, nil
}

// Get returns one recording.
func (s *Service) Get(ctx context.Context, userID, id string) (*Recording, error) {
	if !idgen.ValidateIDFormat(id, idgen.PrefixRecording) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "recording not found", nil, "e2b4c6d8-1a3f-4e5b-8c7d-9f0a1b2c3d04")
	}
	rec, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "recording not found")
	}
	return rec, nil
}

// Delete removes the audio object and then the metadata. A storage failure
// is logged and does not block removal of the metadata.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if rec.AudioKey != "" {
		if err := s.store.Delete(ctx, rec.AudioKey); err != nil {
			s.log.Warn().Err(err).Str("recording_id", id).Str("key", rec.AudioKey).Msg("failed to delete audio object")
		}
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete recording")
	}
	return nil
}

func isAudio(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		name := m.String()
		if strings.HasPrefix(name, "audio/") || name == "video/webm" || name == "video/mp4" || name == "video/ogg" {
			return true
		}
	}
	return false
}
