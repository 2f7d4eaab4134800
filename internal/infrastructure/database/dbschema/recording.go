package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"ruleout-server/internal/domain/recording"
)

// Recording represents the database schema for consultation recordings
type Recording struct {
	ID         string                                           `gorm:"primaryKey;size:64"`
	UserID     string                                           `gorm:"size:128;index:idx_recordings_user_created;not null"`
	Date       string                                           `gorm:"size:32;not null"`
	Time       string                                           `gorm:"size:16;not null"`
	Duration   float64                                          `gorm:"not null;default:0"`
	AudioURL   string                                           `gorm:"type:text;not null"`
	AudioKey   string                                           `gorm:"type:text;not null"`
	Transcript datatypes.JSONSlice[recording.TranscriptSegment] `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
}

// TableName specifies the table name for Recording
func (Recording) TableName() string {
	return "recordings"
}

// EtoD converts database schema to domain recording (Entity to Domain)
func (r *Recording) EtoD() *recording.Recording {
	segments := []recording.TranscriptSegment(r.Transcript)
	if segments == nil {
		segments = []recording.TranscriptSegment{}
	}
	return &recording.Recording{
		ID:         r.ID,
		UserID:     r.UserID,
		Date:       r.Date,
		Time:       r.Time,
		Duration:   r.Duration,
		AudioURL:   r.AudioURL,
		AudioKey:   r.AudioKey,
		Transcript: segments,
		CreatedAt:  r.CreatedAt,
	}
}

// NewSchemaRecording creates a database schema from domain recording
func NewSchemaRecording(r *recording.Recording) *Recording {
	return &Recording{
		ID:         r.ID,
		UserID:     r.UserID,
		Date:       r.Date,
		Time:       r.Time,
		Duration:   r.Duration,
		AudioURL:   r.AudioURL,
		AudioKey:   r.AudioKey,
		Transcript: nonNil(r.Transcript),
		CreatedAt:  r.CreatedAt,
	}
}
