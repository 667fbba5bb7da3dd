package title

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/warden/internal/models"
)

func TestValidGovernorName(t *testing.T) {
	valid := []string{
		"Alice",
		"龙之王",
		"xX_Slayer_Xx",
		"[KoA] Bob",
	}
	for _, name := range valid {
		require.True(t, ValidGovernorName(name), "expected %q to be valid", name)
	}

	invalid := []string{
		"",
		"a",
		"null",
		"NULL",
		"........A.t.t.e.m.p.t",
		"Attempt to invoke virtual method 'java.lang.String'",
		"__ROK_SENTINEL__probe",
	}
	for _, name := range invalid {
		require.False(t, ValidGovernorName(name), "expected %q to be rejected", name)
	}
}

func TestCanAdmit(t *testing.T) {
	base := AdmissionContext{
		GovernorName: "Alice",
		Kind:         models.TitleScientist,
	}

	t.Run("clean request admitted", func(t *testing.T) {
		result := CanAdmit(base)
		require.True(t, result.Allowed)
		require.NoError(t, result.Error())
	})

	t.Run("garbage name rejected", func(t *testing.T) {
		ctx := base
		ctx.GovernorName = "null"
		result := CanAdmit(ctx)
		require.False(t, result.Allowed)
		require.Equal(t, ReasonBadName, result.Code)
	})

	t.Run("banned governor rejected", func(t *testing.T) {
		ctx := base
		ctx.Banned = true
		result := CanAdmit(ctx)
		require.False(t, result.Allowed)
		require.Equal(t, ReasonBanned, result.Code)
	})

	t.Run("second request while outstanding rejected", func(t *testing.T) {
		ctx := base
		ctx.HasOutstanding = true
		result := CanAdmit(ctx)
		require.False(t, result.Allowed)
		require.Equal(t, ReasonDuplicate, result.Code)
		require.Error(t, result.Error())
	})
}

func TestCanComplete(t *testing.T) {
	require.True(t, CanComplete(CompletionContext{RequestID: 1, Status: models.TitleAssigned}).Allowed)

	for _, status := range []models.TitleStatus{
		models.TitlePending, models.TitleCompleted, models.TitleFailed, models.TitleCancelled,
	} {
		result := CanComplete(CompletionContext{RequestID: 1, Status: status})
		require.False(t, result.Allowed, "status %s must not complete", status)
	}
}

func TestCanCancel(t *testing.T) {
	t.Run("owner cancels pending", func(t *testing.T) {
		result := CanCancel(CancelContext{RequestID: 1, GovernorID: 42, OwnerID: 42, Status: models.TitlePending})
		require.True(t, result.Allowed)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		result := CanCancel(CancelContext{RequestID: 1, GovernorID: 42, OwnerID: 7, Status: models.TitlePending})
		require.False(t, result.Allowed)
	})

	t.Run("assigned request cannot be pulled back", func(t *testing.T) {
		result := CanCancel(CancelContext{RequestID: 1, GovernorID: 42, OwnerID: 42, Status: models.TitleAssigned})
		require.False(t, result.Allowed)
	})
}
