package models

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scores are whole numbers in the inclusive range [MinAnalysisScore, MaxAnalysisScore].
const (
	// MinAnalysisScore is the lowest score an analysis may store.
	MinAnalysisScore = 0
	// MaxAnalysisScore is the highest score an analysis may store.
	MaxAnalysisScore = 100
)

// Analysis is a stored snapshot of one resume versus job description evaluation.
type Analysis struct {
	BaseModel

	UserID            string                      `gorm:"size:36;not null;index" json:"user_id"`
	User              *User                       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ResumeName        string                      `gorm:"not null" json:"resume_name"`
	Score             int                         `gorm:"not null" json:"score"`
	Suggestions       datatypes.JSONSlice[string] `json:"suggestions"`
	ImprovedResumeURL *string                     `json:"improved_resume_url"`
}

// TableName keeps the plural form used by the HTTP surface.
func (Analysis) TableName() string { return "analyses" }

// BeforeSave enforces the score range at the persistence boundary.
func (a *Analysis) BeforeSave(tx *gorm.DB) error {
	if a.Score < MinAnalysisScore || a.Score > MaxAnalysisScore {
		return fmt.Errorf("analysis: score %d outside [%d,%d]", a.Score, MinAnalysisScore, MaxAnalysisScore)
	}
	if a.Suggestions == nil {
		a.Suggestions = datatypes.JSONSlice[string]{}
	}
	return nil
}
