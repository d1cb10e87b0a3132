package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/spa-booking/models"
	"gorm.io/gorm"
)

// Store is the read side the generator needs.
type Store interface {
	ActiveSchedules(ctx context.Context) ([]models.WeeklySchedule, error)
	BlockedDates(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error)
	// ActiveAppointments returns PENDING/CONFIRMED appointments overlapping [from, to).
	ActiveAppointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveSchedules(ctx context.Context) ([]models.WeeklySchedule, error) {
	var schedules []models.WeeklySchedule
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("day_of_week").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	return schedules, nil
}

func (s *GormStore) BlockedDates(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	var blocked []models.BlockedDate
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from.UTC(), to.UTC()).
		Order("date").
		Find(&blocked).Error
	if err != nil {
		return nil, fmt.Errorf("load blocked dates: %w", err)
	}
	return blocked, nil
}

func (s *GormStore) ActiveAppointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := overlapping(s.db.WithContext(ctx), from, to).Order("scheduled_at").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return appointments, nil
}

// overlapping scopes a query to blocking appointments intersecting [from, to).
func overlapping(tx *gorm.DB, from, to time.Time) *gorm.DB {
	return tx.Model(&models.Appointment{}).
		Where("status IN ?", models.BlockingStatuses).
		Where("scheduled_at < ? AND end_at > ?", to.UTC(), from.UTC())
}
