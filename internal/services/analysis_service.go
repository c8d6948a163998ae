package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/models"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
)

// AnalysisListLimit caps how many records List returns.
const AnalysisListLimit = 50

// CreateAnalysisInput describes a new analysis record.
type CreateAnalysisInput struct {
	ResumeName        string
	Score             int
	Suggestions       []string
	ImprovedResumeURL *string
}

// AnalysisService stores the analysis history of each user. Every query is
// scoped by owner; there is no cross-user access path.
type AnalysisService struct {
	db *gorm.DB
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(db *gorm.DB) (*AnalysisService, error) {
	if db == nil {
		return nil, errors.New("analysis service: db is required")
	}
	return &AnalysisService{db: db}, nil
}

// List returns the owner's most recent records, newest first.
func (s *AnalysisService) List(ctx context.Context, ownerID string) ([]models.Analysis, error) {
	ctx = ensureContext(ctx)

	items := make([]models.Analysis, 0)
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(AnalysisListLimit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("analysis service: list: %w", err)
	}
	return items, nil
}

// Create stores a record owned by ownerID.
func (s *AnalysisService) Create(ctx context.Context, ownerID string, input CreateAnalysisInput) (*models.Analysis, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.ResumeName)
	if name == "" {
		return nil, apperrors.NewValidation("Missing fields")
	}
	if input.Score < models.MinAnalysisScore || input.Score > models.MaxAnalysisScore {
		return nil, apperrors.NewValidation(fmt.Sprintf("Score must be between %d and %d", models.MinAnalysisScore, models.MaxAnalysisScore))
	}

	suggestions := make([]string, 0, len(input.Suggestions))
	suggestions = append(suggestions, input.Suggestions...)

	var improved *string
	if input.ImprovedResumeURL != nil {
		if trimmed := strings.TrimSpace(*input.ImprovedResumeURL); trimmed != "" {
			improved = &trimmed
		}
	}

	record := &models.Analysis{
		UserID:            ownerID,
		ResumeName:        name,
		Score:             input.Score,
		Suggestions:       datatypes.JSONSlice[string](suggestions),
		ImprovedResumeURL: improved,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("analysis service: create: %w", err)
	}
	return record, nil
}

// Delete removes the record when ownerID owns it. Unknown or foreign ids are a silent no-op.
func (s *AnalysisService) Delete(ctx context.Context, ownerID, id string) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Analysis{}).Error; err != nil {
		return fmt.Errorf("analysis service: delete: %w", err)
	}
	return nil
}
