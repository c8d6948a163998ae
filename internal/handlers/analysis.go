package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/resumex/internal/services"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/response"
)

// multipartOverhead leaves room for form boundaries and the job description
// on top of the file size cap.
const multipartOverhead int64 = 1 << 20

// AnalysisHandler serves the analysis history and the analyze proxy.
type AnalysisHandler struct {
	analyses *services.AnalysisService
	analyzer *services.AnalyzerService
}

// NewAnalysisHandler constructs an AnalysisHandler. analyzer may be nil, in
// which case Analyze answers 503.
func NewAnalysisHandler(analyses *services.AnalysisService, analyzer *services.AnalyzerService) (*AnalysisHandler, error) {
	if analyses == nil {
		return nil, errors.New("analysis handler: analysis service is required")
	}
	return &AnalysisHandler{analyses: analyses, analyzer: analyzer}, nil
}

type createAnalysisRequest struct {
	ResumeName        string   `json:"resumeName" validate:"max=255"`
	Score             any      `json:"score"`
	Suggestions       []string `json:"suggestions" validate:"omitempty,dive,max=2000"`
	ImprovedResumeURL *string  `json:"improvedResumeUrl" validate:"omitempty,max=2048"`
}

// GET /api/analysis
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	items, err := h.analyses.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// POST /api/analysis
func (h *AnalysisHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req createAnalysisRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if strings.TrimSpace(req.ResumeName) == "" || req.Score == nil {
		response.Error(c, apperrors.NewValidation("Missing fields"))
		return
	}
	score, err := parseScore(req.Score)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.analyses.Create(requestContext(c), userID, services.CreateAnalysisInput{
		ResumeName:        req.ResumeName,
		Score:             score,
		Suggestions:       req.Suggestions,
		ImprovedResumeURL: req.ImprovedResumeURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"item": item})
}

// DELETE /api/analysis/:id
func (h *AnalysisHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.analyses.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Deleted", nil)
}

// POST /api/analysis/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.analyzer == nil {
		response.Error(c, apperrors.NewUnavailable("ANALYZER_DISABLED", "Resume analysis is not configured"))
		return
	}

	limit := h.analyzer.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperrors.NewValidation("Resume is too large"))
			return
		}
		response.Error(c, apperrors.NewValidation("Please upload a resume and job description."))
		return
	}
	if header.Size > limit {
		response.Error(c, apperrors.NewValidation("Resume is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("unable to read uploaded resume"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("unable to read uploaded resume"))
		return
	}

	result, err := h.analyzer.Analyze(requestContext(c), userID, services.AnalyzeInput{
		FileName:       header.Filename,
		Content:        content,
		JobDescription: c.PostForm("jobDescription"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// parseScore accepts only JSON numbers holding a whole value. Quoted numbers
// and booleans are rejected; the range check happens in the service.
func parseScore(raw any) (int, error) {
	number, ok := raw.(json.Number)
	if !ok {
		return 0, apperrors.NewValidation("Score must be a number")
	}
	value, err := number.Float64()
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, apperrors.NewValidation("Score must be a number")
	}
	if value != math.Trunc(value) {
		return 0, apperrors.NewValidation("Score must be a whole number")
	}
	if value < math.MinInt32 || value > math.MaxInt32 {
		return 0, apperrors.NewValidation("Score must be between 0 and 100")
	}
	return int(value), nil
}
