package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/resumex/internal/analyzer"
	"github.com/charlesng35/resumex/internal/handlers/testutil"
	"github.com/charlesng35/resumex/internal/models"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

type itemPayload struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	ResumeName        string   `json:"resume_name"`
	Score             int      `json:"score"`
	Suggestions       []string `json:"suggestions"`
	ImprovedResumeURL *string  `json:"improved_resume_url"`
}

type itemEnvelope struct {
	Item itemPayload `json:"item"`
}

type itemsEnvelope struct {
	Items []itemPayload `json:"items"`
}

func createItem(t *testing.T, env *testutil.Env, body map[string]any) itemPayload {
	t.Helper()
	w := env.Request(http.MethodPost, "/api/analysis", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data itemEnvelope
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	return data.Item
}

func listItems(t *testing.T, env *testutil.Env) []itemPayload {
	t.Helper()
	w := env.Request(http.MethodGet, "/api/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data itemsEnvelope
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	return data.Items
}

func TestAnalysisHandler_RequiresSession(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/analysis"},
		{http.MethodPost, "/api/analysis"},
		{http.MethodDelete, "/api/analysis/some-id"},
		{http.MethodPost, "/api/analysis/analyze"},
	} {
		w := env.Request(tc.method, tc.path, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/analysis", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	require.Equal(t, http.StatusUnauthorized, env.Do(req).Code)
}

func TestAnalysisHandler_CreateListDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	require.Empty(t, listItems(t, env))
	require.Contains(t, env.Request(http.MethodGet, "/api/analysis", nil).Body.String(), `"items":[]`)

	first := createItem(t, env, map[string]any{
		"resumeName":        "cv.pdf",
		"score":             78,
		"suggestions":       []string{"Add metrics"},
		"improvedResumeUrl": "https://cdn.example.com/cv.pdf",
	})
	require.Equal(t, "cv.pdf", first.ResumeName)
	require.Equal(t, 78, first.Score)
	require.Equal(t, []string{"Add metrics"}, first.Suggestions)
	require.NotNil(t, first.ImprovedResumeURL)

	time.Sleep(5 * time.Millisecond)
	second := createItem(t, env, map[string]any{"resumeName": "cv2.pdf", "score": 0})
	require.Equal(t, []string{}, second.Suggestions)
	require.Nil(t, second.ImprovedResumeURL)

	items := listItems(t, env)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID, "newest first")
	require.Equal(t, first.ID, items[1].ID)

	w := env.Request(http.MethodDelete, "/api/analysis/"+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items = listItems(t, env)
	require.Len(t, items, 1)
	require.Equal(t, second.ID, items[0].ID)

	// deleting an unknown id still succeeds
	w = env.Request(http.MethodDelete, "/api/analysis/"+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAnalysisHandler_CreateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	cases := []struct {
		name    string
		body    any
		message string
	}{
		{"missing name", map[string]any{"score": 50}, "Missing fields"},
		{"missing score", map[string]any{"resumeName": "cv.pdf"}, "Missing fields"},
		{"quoted score", map[string]any{"resumeName": "cv.pdf", "score": "85"}, "Score must be a number"},
		{"boolean score", map[string]any{"resumeName": "cv.pdf", "score": true}, "Score must be a number"},
		{"fractional score", map[string]any{"resumeName": "cv.pdf", "score": 85.5}, "Score must be a whole number"},
		{"score too high", map[string]any{"resumeName": "cv.pdf", "score": 101}, "Score must be between 0 and 100"},
		{"negative score", map[string]any{"resumeName": "cv.pdf", "score": -1}, "Score must be between 0 and 100"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.Request(http.MethodPost, "/api/analysis", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := testutil.DecodeResponse(t, w)
			require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			require.Equal(t, tc.message, resp.Error.Message)
		})
	}

	w := env.Request(http.MethodPost, "/api/analysis", map[string]any{"resumeName": "cv.pdf", "score": 5, "owner": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "BAD_REQUEST", testutil.DecodeResponse(t, w).Error.Code)

	require.Empty(t, listItems(t, env))
}

func TestAnalysisHandler_OwnerIsolation(t *testing.T) {
	env := testutil.NewEnv(t)

	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")
	annItem := createItem(t, env, map[string]any{"resumeName": "ann.pdf", "score": 90})

	env.ForgetSession()
	env.SignupVerified("Bob", "bob@example.com", "Secr3t!")
	require.Empty(t, listItems(t, env), "bob never sees ann's history")

	w := env.Request(http.MethodDelete, "/api/analysis/"+annItem.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Analysis{}).Where("id = ?", annItem.ID).Count(&count).Error)
	require.Equal(t, int64(1), count, "foreign delete is a no-op")
}

func TestAnalysisHandler_ListCapsAtFifty(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		item := models.Analysis{UserID: user.ID, ResumeName: fmt.Sprintf("cv-%02d.pdf", i), Score: i}
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, env.DB.Create(&item).Error)
	}

	items := listItems(t, env)
	require.Len(t, items, 50)
	require.Equal(t, "cv-54.pdf", items[0].ResumeName)
	require.Equal(t, "cv-05.pdf", items[49].ResumeName)
}

type stubAnalyzer struct {
	report analyzer.Report
	err    error
	calls  int
	last   analyzer.Request
}

func (s *stubAnalyzer) Analyze(_ context.Context, req analyzer.Request) (analyzer.Report, error) {
	s.calls++
	s.last = req
	return s.report, s.err
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	stub := &stubAnalyzer{report: analyzer.Report{
		Parameters: []analyzer.Parameter{
			{Name: "Skills", Score: 80},
			{Name: "Experience", Score: 71},
		},
		Suggestions: []string{"Quantify impact"},
		URL:         "https://cdn.example.com/improved.pdf",
	}}
	env := testutil.NewEnv(t, testutil.WithAnalyzer(stub))
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	w := env.Upload("/api/analysis/analyze", "cv.pdf", samplePDF, "Senior Go engineer")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		Report analyzer.Report `json:"report"`
		Item   itemPayload     `json:"item"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &result)
	require.Len(t, result.Report.Parameters, 2)
	require.Equal(t, 76, result.Item.Score, "mean of 80 and 71 rounds half up")
	require.Equal(t, "cv.pdf", result.Item.ResumeName)
	require.Equal(t, []string{"Quantify impact"}, result.Item.Suggestions)

	require.Equal(t, 1, stub.calls)
	require.Equal(t, "Senior Go engineer", stub.last.JobDescription)
	require.True(t, bytes.Equal(samplePDF, stub.last.Resume))

	items := listItems(t, env)
	require.Len(t, items, 1)
	require.Equal(t, result.Item.ID, items[0].ID)
}

func TestAnalysisHandler_AnalyzeValidation(t *testing.T) {
	stub := &stubAnalyzer{}
	env := testutil.NewEnv(t, testutil.WithAnalyzer(stub), testutil.WithMaxUpload(int64(len(samplePDF))))
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	w := env.Upload("/api/analysis/analyze", "", nil, "Go engineer")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Please upload a resume and job description.", testutil.DecodeResponse(t, w).Error.Message)

	w = env.Upload("/api/analysis/analyze", "cv.pdf", samplePDF, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Upload("/api/analysis/analyze", "cv.pdf", []byte("plain text resume"), "Go engineer")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Resume must be a PDF", testutil.DecodeResponse(t, w).Error.Message)

	oversized := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte(" "), 10)...)
	w = env.Upload("/api/analysis/analyze", "cv.pdf", oversized, "Go engineer")
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Zero(t, stub.calls)
	require.Empty(t, listItems(t, env))
}

func TestAnalysisHandler_AnalyzeUpstreamFailure(t *testing.T) {
	stub := &stubAnalyzer{err: fmt.Errorf("%w: status 500", analyzer.ErrUpstream)}
	env := testutil.NewEnv(t, testutil.WithAnalyzer(stub))
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	w := env.Upload("/api/analysis/analyze", "cv.pdf", samplePDF, "Go engineer")
	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
	require.NotContains(t, w.Body.String(), "status 500")
	require.True(t, errors.Is(stub.err, analyzer.ErrUpstream))
	require.Empty(t, listItems(t, env))
}

func TestAnalysisHandler_AnalyzeDisabled(t *testing.T) {
	env := testutil.NewEnv(t)
	env.SignupVerified("Ann", "ann@example.com", "Secr3t!")

	w := env.Upload("/api/analysis/analyze", "cv.pdf", samplePDF, "Go engineer")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "ANALYZER_DISABLED", testutil.DecodeResponse(t, w).Error.Code)
}
