package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// BanServiceImpl implements the BanService interface.
type BanServiceImpl struct {
	banRepo     secondary.BanRepository
	controlRepo secondary.ControlRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewBanService creates a BanService.
func NewBanService(banRepo secondary.BanRepository, controlRepo secondary.ControlRepository, logger *zap.Logger) *BanServiceImpl {
	return &BanServiceImpl{
		banRepo:     banRepo,
		controlRepo: controlRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Add creates a denylist entry. ExpiresDays of 0 means permanent.
func (s *BanServiceImpl) Add(ctx context.Context, req primary.AddBanRequest) (int64, error) {
	banType, err := models.ParseBanType(req.BanType)
	if err != nil {
		return 0, err
	}

	if err := s.controlRepo.EnsureKingdom(ctx, req.Kingdom); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	ban := &models.Ban{
		Kingdom:      req.Kingdom,
		GovernorID:   req.GovernorID,
		GovernorName: req.GovernorName,
		Type:         banType,
		Reason:       req.Reason,
		BannedBy:     req.BannedBy,
		CreatedAt:    now,
	}
	if req.ExpiresDays > 0 {
		ban.ExpiresAt = now.AddDate(0, 0, req.ExpiresDays)
	}

	id, err := s.banRepo.Create(ctx, ban)
	if err != nil {
		return 0, err
	}

	s.logger.Info("ban added",
		zap.Int("kingdom", req.Kingdom),
		zap.Int64("governor_id", req.GovernorID),
		zap.String("ban_type", string(banType)),
		zap.Int64("ban_id", id))
	return id, nil
}

// Remove deactivates a ban. The row stays for the audit trail.
func (s *BanServiceImpl) Remove(ctx context.Context, kingdom int, banID int64) error {
	if err := s.banRepo.Deactivate(ctx, kingdom, banID); err != nil {
		return err
	}
	s.logger.Info("ban removed", zap.Int("kingdom", kingdom), zap.Int64("ban_id", banID))
	return nil
}

// List returns the active bans for a kingdom.
func (s *BanServiceImpl) List(ctx context.Context, kingdom int) ([]*models.Ban, error) {
	return s.banRepo.List(ctx, kingdom)
}

// Check answers the agent's pre-grant eligibility question. A "titles"
// kind string is accepted loosely here: the agent asks about a title it
// is about to grant, so an unknown kind is an input error.
func (s *BanServiceImpl) Check(ctx context.Context, kingdom int, governorID int64, kind string) (*primary.BanVerdict, error) {
	titleKind, err := models.ParseTitleKind(kind)
	if err != nil {
		return nil, err
	}

	blocking, err := s.banRepo.FindBlocking(ctx, kingdom, governorID, titleKind, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if blocking == nil {
		return &primary.BanVerdict{Banned: false}, nil
	}

	verdict := &primary.BanVerdict{Banned: true, Reason: blocking.Reason}
	if !blocking.ExpiresAt.IsZero() {
		verdict.ExpiresAt = blocking.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return verdict, nil
}

// Ensure BanServiceImpl implements the interface
var _ primary.BanService = (*BanServiceImpl)(nil)
