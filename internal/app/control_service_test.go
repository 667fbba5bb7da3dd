package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
)

func TestControlService_HeartbeatAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.control.Heartbeat(ctx, primary.HeartbeatRequest{
		Kingdom:  testKingdom,
		Activity: "scanning",
		Message:  "screen 42 of 90",
		Progress: 42,
		Total:    90,
	})
	require.NoError(t, err)

	status, err := f.control.Status(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.ActivityScanning, status.Activity)
	require.Equal(t, 42, status.Progress)
}

func TestControlService_Heartbeat_RejectsOffline(t *testing.T) {
	f := newFixture(t)

	err := f.control.Heartbeat(context.Background(), primary.HeartbeatRequest{
		Kingdom:  testKingdom,
		Activity: "offline",
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestControlService_Status_SynthesizesOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Never connected.
	status, err := f.control.Status(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.ActivityOffline, status.Activity)

	// Heartbeat, then silence past the staleness window.
	require.NoError(t, f.control.Heartbeat(ctx, primary.HeartbeatRequest{Kingdom: testKingdom, Activity: "idle"}))
	f.advance(16 * time.Second)

	status, err = f.control.Status(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.ActivityOffline, status.Activity)

	// The next heartbeat recovers without any reset step.
	require.NoError(t, f.control.Heartbeat(ctx, primary.HeartbeatRequest{Kingdom: testKingdom, Activity: "idle"}))
	status, err = f.control.Status(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.ActivityIdle, status.Activity)
}

func TestControlService_SetMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.control.SetMode(ctx, testKingdom, "title_serving", "dashboard")
	require.NoError(t, err)
	require.Equal(t, models.ModeTitleServing, state.Mode)

	// Any transition is legal, including straight to paused and back.
	_, err = f.control.SetMode(ctx, testKingdom, "paused", "dashboard")
	require.NoError(t, err)
	state, err = f.control.Mode(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.ModePaused, state.Mode)

	_, err = f.control.SetMode(ctx, testKingdom, "turbo", "dashboard")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestControlService_CommandRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.control.IssueCommand(ctx, primary.CommandRequest{
		Kingdom: testKingdom,
		Kind:    "start_scan",
	})
	require.NoError(t, err)

	cmd, err := f.control.PollCommand(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.CommandStartScan, cmd.Kind)
	require.Equal(t, models.ScanKingdom, cmd.ScanType, "scan type defaults to kingdom")

	_, err = f.control.PollCommand(ctx, testKingdom)
	require.True(t, errors.Is(err, models.ErrNoCommand), "slot consumed exactly once")
}

func TestControlService_IssueCommand_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.control.IssueCommand(ctx, primary.CommandRequest{Kingdom: testKingdom, Kind: "start_scan", ScanType: "alliance"}))
	require.NoError(t, f.control.IssueCommand(ctx, primary.CommandRequest{Kingdom: testKingdom, Kind: "stop"}))

	cmd, err := f.control.PollCommand(ctx, testKingdom)
	require.NoError(t, err)
	require.Equal(t, models.CommandStop, cmd.Kind, "agent only sees the most recent command")
}

func TestControlService_IssueCommand_StopRejectsParameters(t *testing.T) {
	f := newFixture(t)

	err := f.control.IssueCommand(context.Background(), primary.CommandRequest{
		Kingdom:  testKingdom,
		Kind:     "stop",
		ScanType: "kingdom",
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
