package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/charlesng35/resumex/internal/analyzer"
	"github.com/charlesng35/resumex/internal/models"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/logger"
)

// DefaultMaxUploadBytes caps resume uploads at 10 MiB.
const DefaultMaxUploadBytes int64 = 10 << 20

// ResumeAnalyzer evaluates a resume against a job description.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Report, error)
}

// ResumeArchive keeps a copy of each uploaded resume.
type ResumeArchive interface {
	PutResume(ctx context.Context, userID, fileName string, content []byte) (string, error)
}

// AnalyzeInput is one upload submitted for analysis.
type AnalyzeInput struct {
	FileName       string
	Content        []byte
	JobDescription string
}

// AnalyzeResult pairs the normalised report with the stored history record.
type AnalyzeResult struct {
	Report     analyzer.Report  `json:"report"`
	Item       *models.Analysis `json:"item"`
	ArchiveKey string           `json:"archive_key,omitempty"`
}

// AnalyzerServiceOption customises the AnalyzerService.
type AnalyzerServiceOption func(*AnalyzerService)

// WithResumeArchive enables archiving of uploads. Archive failures are logged and do not fail the request.
func WithResumeArchive(archive ResumeArchive) AnalyzerServiceOption {
	return func(s *AnalyzerService) {
		s.archive = archive
	}
}

// WithMaxUploadBytes overrides the upload size cap.
func WithMaxUploadBytes(limit int64) AnalyzerServiceOption {
	return func(s *AnalyzerService) {
		if limit > 0 {
			s.maxBytes = limit
		}
	}
}

// AnalyzerService runs an upload through the webhook and records the outcome.
type AnalyzerService struct {
	analyzer ResumeAnalyzer
	history  *AnalysisService
	archive  ResumeArchive
	maxBytes int64
	log      *zap.Logger
}

// NewAnalyzerService constructs an AnalyzerService.
func NewAnalyzerService(client ResumeAnalyzer, history *AnalysisService, opts ...AnalyzerServiceOption) (*AnalyzerService, error) {
	if client == nil {
		return nil, errors.New("analyzer service: analyzer is required")
	}
	if history == nil {
		return nil, errors.New("analyzer service: analysis service is required")
	}

	svc := &AnalyzerService{
		analyzer: client,
		history:  history,
		maxBytes: DefaultMaxUploadBytes,
		log:      logger.WithModule("analyzer"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// MaxUploadBytes returns the configured upload cap.
func (s *AnalyzerService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Analyze validates the upload, forwards it to the webhook and stores an
// analysis record scored with the rounded mean of the parameter scores.
func (s *AnalyzerService) Analyze(ctx context.Context, ownerID string, input AnalyzeInput) (*AnalyzeResult, error) {
	ctx = ensureContext(ctx)

	if err := s.validate(input); err != nil {
		return nil, err
	}
	name := resumeName(input.FileName)

	result := &AnalyzeResult{}
	if s.archive != nil {
		key, err := s.archive.PutResume(ctx, ownerID, name, input.Content)
		if err != nil {
			s.log.Warn("resume archive failed", zap.String("user_id", ownerID), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	report, err := s.analyzer.Analyze(ctx, analyzer.Request{
		FileName:       name,
		Resume:         input.Content,
		JobDescription: input.JobDescription,
	})
	if err != nil {
		s.log.Error("resume analysis failed", zap.String("user_id", ownerID), zap.Error(err))
		return nil, apperrors.ErrUpstream.WithInternal(err)
	}
	if report.Empty() {
		s.log.Warn("analyzer returned an unrecognised response", zap.String("user_id", ownerID))
	}

	var improved *string
	if report.URL != "" {
		url := report.URL
		improved = &url
	}

	item, err := s.history.Create(ctx, ownerID, CreateAnalysisInput{
		ResumeName:        name,
		Score:             report.OverallScore(),
		Suggestions:       report.Suggestions,
		ImprovedResumeURL: improved,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer service: record analysis: %w", err)
	}

	result.Report = report
	result.Item = item
	return result, nil
}

func (s *AnalyzerService) validate(input AnalyzeInput) error {
	if len(input.Content) == 0 || strings.TrimSpace(input.JobDescription) == "" {
		return apperrors.NewValidation("Please upload a resume and job description.")
	}
	if int64(len(input.Content)) > s.maxBytes {
		return apperrors.NewValidation(fmt.Sprintf("Resume exceeds the %d byte limit", s.maxBytes))
	}
	if !mimetype.Detect(input.Content).Is("application/pdf") {
		return apperrors.NewValidation("Resume must be a PDF")
	}
	return nil
}

func resumeName(fileName string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "resume.pdf"
	}
	return name
}
