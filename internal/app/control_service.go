// Package app implements the primary ports: the services the HTTP
// server and the CLI drive.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// ControlServiceImpl implements the ControlService interface.
type ControlServiceImpl struct {
	repo      secondary.ControlRepository
	staleness time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewControlService creates a ControlService. staleness is the window
// after which a silent agent is reported as offline; with the agent's
// 3s poll cadence, 15s covers several missed heartbeats.
func NewControlService(repo secondary.ControlRepository, staleness time.Duration, logger *zap.Logger) *ControlServiceImpl {
	return &ControlServiceImpl{
		repo:      repo,
		staleness: staleness,
		logger:    logger,
		now:       time.Now,
	}
}

// Heartbeat records an agent status report. Writes are
// last-write-wins by timestamp at the repository level.
func (s *ControlServiceImpl) Heartbeat(ctx context.Context, req primary.HeartbeatRequest) error {
	activity, err := models.ParseActivity(req.Activity)
	if err != nil {
		return err
	}

	if err := s.repo.EnsureKingdom(ctx, req.Kingdom); err != nil {
		return err
	}

	return s.repo.UpsertStatus(ctx, &models.AgentStatus{
		Kingdom:   req.Kingdom,
		Activity:  activity,
		Message:   req.Message,
		Progress:  req.Progress,
		Total:     req.Total,
		UpdatedAt: s.now().UTC(),
	})
}

// Status returns the latest agent status. A kingdom whose agent never
// connected, or whose last heartbeat is older than the staleness
// window, reports offline. Staleness is derived on read, never stored:
// it auto-recovers on the next heartbeat.
func (s *ControlServiceImpl) Status(ctx context.Context, kingdom int) (*models.AgentStatus, error) {
	status, err := s.repo.GetStatus(ctx, kingdom)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.AgentStatus{
				Kingdom:  kingdom,
				Activity: models.ActivityOffline,
				Message:  "agent has never connected",
			}, nil
		}
		return nil, err
	}

	if status.Stale(s.now(), s.staleness) {
		status.Activity = models.ActivityOffline
	}
	return status, nil
}

// Mode returns the owner-intended mode for a kingdom.
func (s *ControlServiceImpl) Mode(ctx context.Context, kingdom int) (*models.ModeState, error) {
	return s.repo.GetMode(ctx, kingdom)
}

// SetMode records an owner transition. Every transition is legal: the
// state machine records intent and the agent unwinds its own in-flight
// work before honoring the change.
func (s *ControlServiceImpl) SetMode(ctx context.Context, kingdom int, mode string, requestedBy string) (*models.ModeState, error) {
	parsed, err := models.ParseBotMode(mode)
	if err != nil {
		return nil, err
	}

	if err := s.repo.EnsureKingdom(ctx, kingdom); err != nil {
		return nil, err
	}

	state := &models.ModeState{
		Kingdom:     kingdom,
		Mode:        parsed,
		RequestedBy: requestedBy,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.repo.SetMode(ctx, state); err != nil {
		return nil, err
	}

	s.logger.Info("mode changed",
		zap.Int("kingdom", kingdom),
		zap.String("mode", string(parsed)),
		zap.String("requested_by", requestedBy))
	return state, nil
}

// IssueCommand places a command in the single-slot mailbox. An
// unconsumed predecessor is overwritten: the agent only ever sees the
// most recent command at poll time.
func (s *ControlServiceImpl) IssueCommand(ctx context.Context, req primary.CommandRequest) error {
	kind, err := models.ParseCommandKind(req.Kind)
	if err != nil {
		return err
	}

	cmd := &models.Command{
		Kingdom:  req.Kingdom,
		Kind:     kind,
		IssuedAt: s.now().UTC(),
	}

	switch kind {
	case models.CommandStartScan:
		scanType := req.ScanType
		if scanType == "" {
			scanType = string(models.ScanKingdom)
		}
		parsed, err := models.ParseScanType(scanType)
		if err != nil {
			return err
		}
		cmd.ScanType = parsed
		cmd.Options = req.Options
	case models.CommandStop:
		if req.ScanType != "" || req.Options != "" {
			return fmt.Errorf("%w: stop carries no parameters", models.ErrInvalidInput)
		}
	}

	if err := s.repo.EnsureKingdom(ctx, req.Kingdom); err != nil {
		return err
	}
	if err := s.repo.IssueCommand(ctx, cmd); err != nil {
		return err
	}

	s.logger.Info("command issued",
		zap.Int("kingdom", req.Kingdom),
		zap.String("kind", string(kind)),
		zap.String("scan_type", string(cmd.ScanType)))
	return nil
}

// PollCommand consumes the pending command exactly once. The losing
// side of a consume race gets models.ErrNoCommand, which the agent
// treats the same as an empty slot.
func (s *ControlServiceImpl) PollCommand(ctx context.Context, kingdom int) (*models.Command, error) {
	return s.repo.ConsumeCommand(ctx, kingdom)
}

// Ensure ControlServiceImpl implements the interface
var _ primary.ControlService = (*ControlServiceImpl)(nil)
