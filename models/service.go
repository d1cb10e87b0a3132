package models

import (
	"time"

	"gorm.io/gorm"
)

type AppointmentType string

const (
	TypeFirst  AppointmentType = "FIRST"
	TypeReturn AppointmentType = "RETURN"
)

// Service is a treatment offered by the spa.
type Service struct {
	gorm.Model
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" gorm:"not null"`
	Price           float64 `json:"price"`
	ReturnPrice     float64 `json:"return_price"` // follow-up session price, 0 means same as Price
	ImageURL        string  `json:"image_url"`
	Active          bool    `json:"active" gorm:"default:true"`
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

func (s *Service) PriceFor(t AppointmentType) float64 {
	if t == TypeReturn && s.ReturnPrice > 0 {
		return s.ReturnPrice
	}
	return s.Price
}

func (t AppointmentType) Valid() bool {
	return t == TypeFirst || t == TypeReturn
}
