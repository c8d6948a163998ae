package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	apperrors "github.com/charlesng35/resumex/pkg/errors"
)

func newContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	c, rec := newContext(t)
	Success(c, http.StatusCreated, gin.H{"item": gin.H{"id": "abc"}})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	require.True(t, resp.Success)
	require.Nil(t, resp.Error)
	require.Empty(t, resp.Message)
	require.NotContains(t, rec.Body.String(), `"message"`)
}

func TestSuccessWithMessageOmitsEmptyData(t *testing.T) {
	c, rec := newContext(t)
	SuccessWithMessage(c, http.StatusOK, "Logged out successfully", nil)

	resp := decode(t, rec)
	require.Equal(t, "Logged out successfully", resp.Message)
	require.NotContains(t, rec.Body.String(), `"data"`)
}

func TestErrorWithWrappedAppError(t *testing.T) {
	c, rec := newContext(t)
	Error(c, fmt.Errorf("auth service: %w", apperrors.NewConflict("User already exists")))

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec)
	require.False(t, resp.Success)
	require.Equal(t, apperrors.CodeConflict, resp.Error.Code)
	require.Equal(t, "User already exists", resp.Message)
	require.Empty(t, c.Errors, "client errors are not recorded on the context")
}

func TestErrorWithGenericErrorHidesCause(t *testing.T) {
	c, rec := newContext(t)
	Error(c, errors.New("sqlite: database is locked"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "locked")
	require.Equal(t, apperrors.CodeInternal, decode(t, rec).Error.Code)
	require.Len(t, c.Errors, 1)
}

func TestErrorNil(t *testing.T) {
	c, rec := newContext(t)
	Error(c, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, c.Errors)
}
