package booking

import (
	"time"

	"culturin/internal/modules/notification"
)

type StartRequest struct {
	Flow         string `json:"flow" binding:"omitempty,oneof=standard extended"`
	ExperienceID string `json:"experience_id"`
}

type SelectItemRequest struct {
	ExperienceID string `json:"experience_id" binding:"required"`
}

type SetDateRequest struct {
	// Date is YYYY-MM-DD.
	Date string `json:"date" binding:"required"`
}

func (r SetDateRequest) Parse(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, r.Date, loc)
}

type SetTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

type SetGuestsRequest struct {
	Guests int `json:"guests"`
}

type SetContactRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

type SetPaymentRequest struct {
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	CardExpiry string `json:"card_expiry"`
	CardCVC    string `json:"card_cvc"`
	Token      string `json:"token"`
}

// SessionResponse is returned by every session endpoint: the wizard state
// plus the toasts raised while handling the request.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	State
	Toasts []notification.Toast `json:"toasts"`
}
