package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/warden/internal/core/title"
	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// DefaultTitleDurationHours applies when a request does not say how
// long the title should be held.
const DefaultTitleDurationHours = 24

// TitleServiceImpl implements the TitleService interface.
type TitleServiceImpl struct {
	titleRepo   secondary.TitleRequestRepository
	banRepo     secondary.BanRepository
	controlRepo secondary.ControlRepository
	// recycleAfter is how long an assigned request may sit without an
	// outcome before take-next re-offers it to the agent.
	recycleAfter time.Duration
	// notifySkips surfaces auto-cancelled (banned mid-queue) requests
	// to the agent in the take-next response so it can tell the
	// requester. The cancellation itself is always recorded and logged.
	notifySkips bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewTitleService creates a TitleService.
func NewTitleService(titleRepo secondary.TitleRequestRepository, banRepo secondary.BanRepository, controlRepo secondary.ControlRepository, recycleAfter time.Duration, notifySkips bool, logger *zap.Logger) *TitleServiceImpl {
	return &TitleServiceImpl{
		titleRepo:    titleRepo,
		banRepo:      banRepo,
		controlRepo:  controlRepo,
		recycleAfter: recycleAfter,
		notifySkips:  notifySkips,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit admits or rejects a chat-derived request. The verdict is
// synchronous so the chat reader can answer the requester immediately.
// A rejection is a verdict, not a failure: the error return is reserved
// for storage trouble.
func (s *TitleServiceImpl) Submit(ctx context.Context, req primary.SubmitTitleRequest) (*primary.AdmissionResult, error) {
	kind, err := models.ParseTitleKind(req.Kind)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	banned := false
	if req.GovernorID != 0 {
		blocking, err := s.banRepo.FindBlocking(ctx, req.Kingdom, req.GovernorID, kind, now)
		if err != nil {
			return nil, err
		}
		banned = blocking != nil
	}

	outstanding, err := s.titleRepo.HasOutstanding(ctx, req.Kingdom, req.GovernorID, req.GovernorName, kind)
	if err != nil {
		return nil, err
	}

	guard := title.CanAdmit(title.AdmissionContext{
		GovernorName:   req.GovernorName,
		Kind:           kind,
		Banned:         banned,
		HasOutstanding: outstanding,
	})
	if !guard.Allowed {
		s.logger.Info("title request rejected",
			zap.Int("kingdom", req.Kingdom),
			zap.Int64("governor_id", req.GovernorID),
			zap.String("kind", string(kind)),
			zap.String("reason", guard.Code))
		return &primary.AdmissionResult{Admitted: false, ReasonCode: guard.Code}, nil
	}

	if err := s.controlRepo.EnsureKingdom(ctx, req.Kingdom); err != nil {
		return nil, err
	}

	duration := req.DurationHours
	if duration <= 0 {
		duration = DefaultTitleDurationHours
	}

	request := &models.TitleRequest{
		Kingdom:       req.Kingdom,
		GovernorID:    req.GovernorID,
		GovernorName:  req.GovernorName,
		AllianceTag:   req.AllianceTag,
		Kind:          kind,
		DurationHours: duration,
		Status:        models.TitlePending,
		Priority:      req.Priority,
		CreatedAt:     now,
	}
	id, err := s.titleRepo.Create(ctx, request)
	if errors.Is(err, models.ErrDuplicateRequest) {
		// Lost an admission race to a concurrent submit; same verdict
		// as the pre-check.
		s.logger.Info("title request rejected",
			zap.Int("kingdom", req.Kingdom),
			zap.Int64("governor_id", req.GovernorID),
			zap.String("kind", string(kind)),
			zap.String("reason", title.ReasonDuplicate))
		return &primary.AdmissionResult{Admitted: false, ReasonCode: title.ReasonDuplicate}, nil
	}
	if err != nil {
		return nil, err
	}

	position, err := s.titleRepo.QueuePosition(ctx, req.Kingdom, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("title request admitted",
		zap.Int("kingdom", req.Kingdom),
		zap.Int64("request_id", id),
		zap.String("governor", req.GovernorName),
		zap.String("kind", string(kind)),
		zap.Int("position", position))
	return &primary.AdmissionResult{Admitted: true, RequestID: id, Position: position}, nil
}

// Queue lists requests in assignment order.
func (s *TitleServiceImpl) Queue(ctx context.Context, kingdom int, filters secondary.TitleFilters) ([]*models.TitleRequest, error) {
	return s.titleRepo.List(ctx, kingdom, filters)
}

// Next assigns the next eligible request to the agent. The repository
// runs the whole queue walk, including ban re-checks and the stale
// assignment recycle, in one transaction.
func (s *TitleServiceImpl) Next(ctx context.Context, kingdom int) (*primary.Assignment, error) {
	now := s.now().UTC()

	req, recycled, skipped, err := s.titleRepo.TakeNext(ctx, kingdom, now, now.Add(-s.recycleAfter))
	for _, sk := range skipped {
		s.logger.Warn("title request cancelled before assignment",
			zap.Int("kingdom", kingdom),
			zap.Int64("request_id", sk.ID),
			zap.String("governor", sk.GovernorName),
			zap.String("kind", string(sk.Kind)),
			zap.String("reason", models.NoteBannedBeforeAssignment))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("title request assigned",
		zap.Int("kingdom", kingdom),
		zap.Int64("request_id", req.ID),
		zap.String("governor", req.GovernorName),
		zap.String("kind", string(req.Kind)),
		zap.Bool("recycled", recycled))

	assignment := &primary.Assignment{Request: req, Recycled: recycled}
	if s.notifySkips {
		assignment.Skipped = skipped
	}
	return assignment, nil
}

// ReportOutcome records the agent's verdict for its assigned request.
// On success the title's expiry is stamped from the requested duration.
func (s *TitleServiceImpl) ReportOutcome(ctx context.Context, requestID int64, success bool, message string) error {
	req, err := s.titleRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	guard := title.CanComplete(title.CompletionContext{
		RequestID: req.ID,
		Status:    req.Status,
	})
	if !guard.Allowed {
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, guard.Reason)
	}

	now := s.now().UTC()
	status := models.TitleFailed
	var expiresAt time.Time
	if success {
		status = models.TitleCompleted
		expiresAt = now.Add(time.Duration(req.DurationHours) * time.Hour)
	}

	if err := s.titleRepo.UpdateOutcome(ctx, requestID, status, message, now, expiresAt); err != nil {
		return err
	}

	s.logger.Info("title outcome recorded",
		zap.Int64("request_id", requestID),
		zap.String("status", string(status)))
	return nil
}

// Cancel withdraws a requester's own pending request.
func (s *TitleServiceImpl) Cancel(ctx context.Context, kingdom int, requestID int64, governorID int64) error {
	req, err := s.titleRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Kingdom != kingdom {
		return fmt.Errorf("request %d: %w", requestID, models.ErrNotFound)
	}

	guard := title.CanCancel(title.CancelContext{
		RequestID:  req.ID,
		GovernorID: req.GovernorID,
		OwnerID:    governorID,
		Status:     req.Status,
	})
	if !guard.Allowed {
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, guard.Reason)
	}

	return s.titleRepo.Cancel(ctx, requestID, "cancelled by requester")
}

// Clear bulk-cancels requests in scope.
func (s *TitleServiceImpl) Clear(ctx context.Context, kingdom int, scope secondary.ClearScope) (int64, error) {
	n, err := s.titleRepo.Clear(ctx, kingdom, scope)
	if err != nil {
		return 0, err
	}
	s.logger.Info("title queue cleared",
		zap.Int("kingdom", kingdom),
		zap.String("scope", string(scope)),
		zap.Int64("cancelled", n))
	return n, nil
}

// Stats returns dashboard counters. "Completed today" counts from UTC
// midnight so every dashboard sees the same number.
func (s *TitleServiceImpl) Stats(ctx context.Context, kingdom int) (*secondary.TitleStats, error) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.titleRepo.Stats(ctx, kingdom, startOfDay)
}

// Ensure TitleServiceImpl implements the interface
var _ primary.TitleService = (*TitleServiceImpl)(nil)
