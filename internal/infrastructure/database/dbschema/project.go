package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"ruleout-server/internal/domain/project"
)

// Project represents the database schema for projects
type Project struct {
	ID              string                      `gorm:"primaryKey;size:64"`
	UserID          string                      `gorm:"size:128;index:idx_projects_user_updated;not null"`
	Title           string                      `gorm:"size:255;not null"`
	Description     string                      `gorm:"type:text;not null;default:''"`
	ConversationIDs datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// EtoD converts database schema to domain project (Entity to Domain)
func (p *Project) EtoD() *project.Project {
	ids := []string(p.ConversationIDs)
	if ids == nil {
		ids = []string{}
	}
	return &project.Project{
		ID:              p.ID,
		UserID:          p.UserID,
		Title:           p.Title,
		Description:     p.Description,
		ConversationIDs: ids,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// NewSchemaProject creates a database schema from domain project
func NewSchemaProject(p *project.Project) *Project {
	return &Project{
		ID:              p.ID,
		UserID:          p.UserID,
		Title:           p.Title,
		Description:     p.Description,
		ConversationIDs: nonNil(p.ConversationIDs),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
