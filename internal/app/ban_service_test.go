package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
)

func TestBanService_AddListRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.bans.Add(ctx, primary.AddBanRequest{
		Kingdom:      testKingdom,
		GovernorID:   11111,
		GovernorName: "Troll",
		BanType:      "titles",
		Reason:       "title trolling",
		BannedBy:     "owner",
	})
	require.NoError(t, err)

	bans, err := f.bans.List(ctx, testKingdom)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	require.Equal(t, "title trolling", bans[0].Reason)
	require.True(t, bans[0].ExpiresAt.IsZero(), "no expiry means permanent")

	require.NoError(t, f.bans.Remove(ctx, testKingdom, id))

	bans, err = f.bans.List(ctx, testKingdom)
	require.NoError(t, err)
	require.Empty(t, bans)
}

func TestBanService_Add_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := primary.AddBanRequest{Kingdom: testKingdom, GovernorID: 11111, BanType: "titles"}
	_, err := f.bans.Add(ctx, req)
	require.NoError(t, err)

	_, err = f.bans.Add(ctx, req)
	require.ErrorIs(t, err, models.ErrAlreadyBanned)
}

func TestBanService_Add_ExpiryFromDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.bans.Add(ctx, primary.AddBanRequest{
		Kingdom:     testKingdom,
		GovernorID:  11111,
		BanType:     "titles",
		ExpiresDays: 7,
	})
	require.NoError(t, err)

	bans, err := f.bans.List(ctx, testKingdom)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	require.Equal(t, f.now.AddDate(0, 0, 7), bans[0].ExpiresAt.UTC())
}

func TestBanService_Check(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	verdict, err := f.bans.Check(ctx, testKingdom, 11111, "duke")
	require.NoError(t, err)
	require.False(t, verdict.Banned)

	_, err = f.bans.Add(ctx, primary.AddBanRequest{
		Kingdom:     testKingdom,
		GovernorID:  11111,
		BanType:     "all",
		Reason:      "wildcard",
		ExpiresDays: 1,
	})
	require.NoError(t, err)

	verdict, err = f.bans.Check(ctx, testKingdom, 11111, "duke")
	require.NoError(t, err)
	require.True(t, verdict.Banned)
	require.Equal(t, "wildcard", verdict.Reason)
	require.Equal(t, f.now.AddDate(0, 0, 1).Format(time.RFC3339), verdict.ExpiresAt)

	_, err = f.bans.Check(ctx, testKingdom, 11111, "emperor")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
