package recording

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"
)

// Speaker is the role assigned to a transcript segment.
type Speaker string

const (
	SpeakerVet       Speaker = "vet"
	SpeakerCaregiver Speaker = "caregiver"
)

// TranscriptSegment is one diarized utterance. Start and End are seconds
// from the beginning of the audio.
type TranscriptSegment struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Recording is a stored consultation recording with its transcript.
type Recording struct {
	ID         string              `json:"id"`
	UserID     string              `json:"-"`
	Date       string              `json:"date"`
	Time       string              `json:"time"`
	Duration   float64             `json:"duration"`
	AudioURL   string              `json:"audio_url"`
	AudioKey   string              `json:"-"`
	Transcript []TranscriptSegment `json:"transcript"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Transcript is the result of a transcription run.
type Transcript struct {
	Segments []TranscriptSegment
	Duration float64
	Language string
}

// Progress is a transcription stage report.
type Progress struct {
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
}

// Transcriber turns audio into a diarized transcript, reporting each stage
// to progress as it starts.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string, numSpeakers int, progress func(Progress)) (*Transcript, error)
}

// ObjectStore stores audio files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// Repository persists recording metadata.
type Repository interface {
	Create(ctx context.Context, rec *Recording) error
	// List returns recordings by created_at, newest first.
	List(ctx context.Context, userID string) ([]*Recording, error)
	Get(ctx context.Context, userID, id string) (*Recording, error)
	Delete(ctx context.Context, userID, id string) error
}

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatDate renders t as "MMM DD, YYYY" with a zero-padded day.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %02d, %d", monthAbbrev[t.Month()-1], t.Day(), t.Year())
}

// FormatTime renders t as "H:MM AM" using a 12-hour clock.
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatDuration renders seconds as "MM:SS". Minutes are not wrapped at 60.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
