package booking

import "errors"

var (
	ErrInvalidItem     = errors.New("invalid bookable item")
	ErrItemNotFound    = errors.New("bookable item not found")
	ErrSessionNotFound = errors.New("booking session not found")
	ErrCompleted       = errors.New("booking already confirmed")
	ErrPaymentInFlight = errors.New("payment is already in progress")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time slot")
	ErrPersistence     = errors.New("booking could not be saved")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUnknownFlow     = errors.New("unknown booking flow")
)

// GuardError is a failed forward transition. Message is the text shown to
// the guest.
type GuardError struct {
	Step    Step
	Message string
}

func (e *GuardError) Error() string { return e.Message }

// PaymentError is a declined or failed charge.
type PaymentError struct {
	Code   string
	Reason string
}

func (e *PaymentError) Error() string { return "payment failed: " + e.Code }
