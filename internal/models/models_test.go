package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	parsed, err := uuid.Parse(base.ID)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), parsed.Version())

	preset := BaseModel{ID: "fixed"}
	require.NoError(t, preset.BeforeCreate(nil))
	require.Equal(t, "fixed", preset.ID)
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 50; i++ {
		next := NewID()
		require.Less(t, prev, next)
		prev = next
	}
}

func TestUserVerificationLifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	expires := now.Add(24 * time.Hour)

	u := &User{VerificationToken: &code, VerificationTokenExpiresAt: &expires}
	u.ClearVerification()
	require.Nil(t, u.VerificationToken)
	require.Nil(t, u.VerificationTokenExpiresAt)

	token := "reset"
	u.ResetPasswordToken = &token
	u.ResetPasswordExpiresAt = &expires
	u.ClearPasswordReset()
	require.Nil(t, u.ResetPasswordToken)
	require.Nil(t, u.ResetPasswordExpiresAt)
}

func TestAnalysisBeforeSaveValidatesScore(t *testing.T) {
	require.Error(t, (&Analysis{Score: -1}).BeforeSave(nil))
	require.Error(t, (&Analysis{Score: 101}).BeforeSave(nil))

	a := &Analysis{Score: 100}
	require.NoError(t, a.BeforeSave(nil))
	require.NotNil(t, a.Suggestions)
	require.Len(t, a.Suggestions, 0)
}
