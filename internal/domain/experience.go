package domain

import "time"

// Experience is a bookable tour or cultural experience offered by an operator.
type Experience struct {
	ID             string    `json:"id" gorm:"primaryKey;size:64" validate:"required"`
	OperatorSlug   string    `json:"operator_slug" gorm:"size:64;index"`
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	Location       string    `json:"location"`
	PricePerPerson float64   `json:"price_per_person" validate:"gte=0"`
	Currency       string    `json:"currency,omitempty" gorm:"size:3"`
	DurationMin    int       `json:"duration_minutes,omitempty"`
	TimeSlots      []string  `json:"time_slots,omitempty" gorm:"serializer:json"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Experience) TableName() string { return "experiences" }
