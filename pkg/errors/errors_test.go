package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := ErrUpstream.WithInternal(stdErrors.New("webhook returned 500"))
	require.Equal(t, "Analysis service unavailable: webhook returned 500", err.Error())
	require.Equal(t, "Analysis service unavailable", ErrUpstream.Error())

	var nilErr *AppError
	require.Equal(t, "<nil>", nilErr.Error())
	require.Nil(t, nilErr.WithInternal(stdErrors.New("x")))
}

func TestWithInternalKeepsSentinelIdentity(t *testing.T) {
	cause := stdErrors.New("bcrypt mismatch")
	with := ErrInvalidCredentials.WithInternal(cause)

	require.NotSame(t, ErrInvalidCredentials, with)
	require.Nil(t, ErrInvalidCredentials.Internal)
	require.ErrorIs(t, with, ErrInvalidCredentials)
	require.ErrorIs(t, with, cause)
	require.NotErrorIs(t, with, ErrEmailNotVerified)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))
	require.Same(t, ErrUnauthorized, FromError(ErrUnauthorized))

	wrapped := fmt.Errorf("auth service: %w", ErrEmailNotVerified)
	require.Equal(t, CodeEmailNotVerified, FromError(wrapped).Code)

	raw := stdErrors.New("disk full")
	out := FromError(raw)
	require.Equal(t, CodeInternal, out.Code)
	require.Equal(t, http.StatusInternalServerError, out.StatusCode)
	require.ErrorIs(t, out, raw)
}

func TestTaxonomyConstructors(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidation("All fields are required"), CodeValidation, http.StatusBadRequest},
		{"bad request", NewBadRequest("invalid JSON payload"), CodeBadRequest, http.StatusBadRequest},
		{"conflict", NewConflict("User already exists"), CodeConflict, http.StatusConflict},
		{"not found", NewNotFound("User not found"), CodeNotFound, http.StatusNotFound},
		{"forbidden", NewForbidden("CORS_FORBIDDEN", "Not allowed by CORS"), "CORS_FORBIDDEN", http.StatusForbidden},
		{"unavailable", NewUnavailable("ANALYZER_DISABLED", "off"), "ANALYZER_DISABLED", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.code, tc.err.Code)
			require.Equal(t, tc.status, tc.err.StatusCode)
			require.True(t, HasCode(fmt.Errorf("wrapped: %w", tc.err), tc.code))
			require.False(t, HasCode(stdErrors.New(tc.code), tc.code))
		})
	}
}

func TestWithStatusKeepsIdentity(t *testing.T) {
	out := ErrInvalidCredentials.WithStatus(http.StatusBadRequest)
	require.Equal(t, http.StatusBadRequest, out.StatusCode)
	require.Equal(t, CodeInvalidCredentials, out.Code)
	require.ErrorIs(t, out, ErrInvalidCredentials)
	require.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.StatusCode)

	var missing *AppError
	require.Nil(t, missing.WithStatus(http.StatusBadRequest))
}
