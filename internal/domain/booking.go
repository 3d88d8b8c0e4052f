package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is the durable record of a confirmed reservation.
type Booking struct {
	ID             int64         `json:"id" gorm:"primaryKey"`
	Reference      string        `json:"reference" gorm:"size:40;uniqueIndex"`
	ExperienceID   string        `json:"experience_id" gorm:"size:64;index"`
	ExperienceName string        `json:"experience_title"`
	Date           time.Time     `json:"date"`
	TimeSlot       string        `json:"time_slot,omitempty" gorm:"size:5"`
	GuestCount     int           `json:"guest_count"`
	PricePerPerson float64       `json:"price_per_person"`
	FeeRate        float64       `json:"fee_rate"`
	TotalPrice     float64       `json:"total_price"`
	Currency       string        `json:"currency" gorm:"size:3"`
	ContactName    string        `json:"contact_name"`
	ContactEmail   string        `json:"contact_email" gorm:"index"`
	ContactPhone   string        `json:"contact_phone,omitempty"`
	Requests       string        `json:"special_requests,omitempty" gorm:"type:text"`
	ChargeID       string        `json:"-" gorm:"size:128"`
	Status         BookingStatus `json:"status" gorm:"size:16"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (Booking) TableName() string { return "bookings" }
