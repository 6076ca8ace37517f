package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/db"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidRecord = errors.New("invalid audit record: record cannot be nil")
	ErrMissingAlert  = errors.New("invalid audit record: alert id cannot be empty")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

// AuditStore is the append-only audit trail. Records are written once and
// never read back synchronously by this core.
type AuditStore interface {
	AppendAssessment(ctx context.Context, rec *model.AssessmentRecord) error
	AppendAlertEvent(ctx context.Context, rec *model.AlertAuditRecord) error
}

type auditRepository struct {
	assessments *db.Repository[model.AssessmentRecord]
	alertEvents *db.Repository[model.AlertAuditRecord]
	logger      *zap.Logger
}

func NewAuditRepository(
	assessments *db.Repository[model.AssessmentRecord],
	alertEvents *db.Repository[model.AlertAuditRecord],
	logger *zap.Logger,
) AuditStore {
	return &auditRepository{
		assessments: assessments,
		alertEvents: alertEvents,
		logger:      logger,
	}
}

// -----------------------------------------------------------------------------
// AppendAssessment
// -----------------------------------------------------------------------------

func (a *auditRepository) AppendAssessment(ctx context.Context, rec *model.AssessmentRecord) error {
	if rec == nil {
		return ErrInvalidRecord
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	ctx, cancel := a.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	err := a.insertWithRetry(ctx, func(ctx context.Context) error {
		_, err := a.assessments.Create(ctx, *rec)
		return err
	})
	if err != nil {
		a.logger.Error("failed to append assessment record",
			zap.Error(err),
			zap.String("patient_id", rec.PatientID),
		)
		return fmt.Errorf("append assessment failed: %w", err)
	}

	a.logger.Debug("assessment record appended",
		zap.String("patient_id", rec.PatientID),
		zap.String("urgency", string(rec.Assessment.Urgency)),
	)
	return nil
}

// -----------------------------------------------------------------------------
// AppendAlertEvent
// -----------------------------------------------------------------------------

func (a *auditRepository) AppendAlertEvent(ctx context.Context, rec *model.AlertAuditRecord) error {
	if rec == nil {
		return ErrInvalidRecord
	}
	if rec.AlertID == "" {
		return ErrMissingAlert
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	ctx, cancel := a.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	err := a.insertWithRetry(ctx, func(ctx context.Context) error {
		_, err := a.alertEvents.Create(ctx, *rec)
		return err
	})
	if err != nil {
		a.logger.Error("failed to append alert audit event",
			zap.Error(err),
			zap.String("alert_id", rec.AlertID),
			zap.String("event", rec.Event),
		)
		return fmt.Errorf("append alert event failed: %w", err)
	}

	a.logger.Debug("alert audit event appended",
		zap.String("alert_id", rec.AlertID),
		zap.String("event", rec.Event),
		zap.Int("tier", rec.Tier),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (a *auditRepository) insertWithRetry(ctx context.Context, insert func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := a.waitForRetry(ctx, attempt); err != nil {
				return err
			}
		}

		err := insert(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry on context cancellation or non-retryable errors
		if !a.isRetryableError(lastErr) {
			break
		}

		a.logger.Warn("audit insert attempt failed, retrying",
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}
	return lastErr
}

func (a *auditRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (a *auditRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (a *auditRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// Check for MongoDB transient errors
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}
