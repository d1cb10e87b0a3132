package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meinhoongagan/spa-booking/metrics"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// bookingLockKey is the postgres advisory lock shared by every writer of the
// appointment calendar.
const bookingLockKey int64 = 0x5ba0b00c

type BookingRequest struct {
	UserID    uint
	ServiceID uint
	Start     time.Time
	Duration  time.Duration
	Type      models.AppointmentType
	Price     float64
	Location  string
	Notes     string
}

// Guard is the only writer of appointment intervals. Every insert or move
// re-checks for overlapping PENDING/CONFIRMED appointments in the same
// transaction, serialised by an in-process mutex and, on postgres, a
// transaction-scoped advisory lock shared across instances.
type Guard struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// TryBook inserts a PENDING appointment for [Start, Start+Duration) or fails
// with ErrConflict.
func (g *Guard) TryBook(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if req.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidRange)
	}

	appointment := &models.Appointment{
		UserID:      req.UserID,
		ServiceID:   req.ServiceID,
		ScheduledAt: req.Start,
		EndAt:       req.Start.Add(req.Duration),
		Status:      models.StatusPending,
		Type:        req.Type,
		Price:       req.Price,
		Location:    req.Location,
		Notes:       req.Notes,
	}

	err := g.serialized(ctx, func(tx *gorm.DB) error {
		if err := ensureFree(tx, appointment.ScheduledAt, appointment.EndAt, 0); err != nil {
			return err
		}
		return tx.Create(appointment).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
			log.Info().Uint("user_id", req.UserID).Time("start", req.Start).Msg("booking rejected, slot taken")
		}
		return nil, err
	}

	metrics.IncAppointmentBooked(string(appointment.Type))
	return appointment, nil
}

// Reschedule moves a blocking appointment to newStart, keeping its length.
func (g *Guard) Reschedule(ctx context.Context, id uint, newStart time.Time) (*models.Appointment, error) {
	var appointment models.Appointment

	err := g.serialized(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&appointment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		if !appointment.Blocks() {
			return fmt.Errorf("%w: cannot reschedule a %s appointment", models.ErrInvalidTransition, appointment.Status)
		}

		newEnd := newStart.Add(appointment.EndAt.Sub(appointment.ScheduledAt))
		if err := ensureFree(tx, newStart, newEnd, appointment.ID); err != nil {
			return err
		}

		appointment.ScheduledAt = newStart.UTC()
		appointment.EndAt = newEnd.UTC()
		return tx.Model(&appointment).Updates(map[string]any{
			"scheduled_at": appointment.ScheduledAt,
			"end_at":       appointment.EndAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}
	return &appointment, nil
}

func (g *Guard) serialized(ctx context.Context, fn func(tx *gorm.DB) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bookingLockKey).Error; err != nil {
				return fmt.Errorf("acquire booking lock: %w", err)
			}
		}
		return fn(tx)
	})
}

func ensureFree(tx *gorm.DB, start, end time.Time, excludeID uint) error {
	q := overlapping(tx, start, end)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check overlapping appointments: %w", err)
	}
	if count > 0 {
		return ErrConflict
	}
	return nil
}
