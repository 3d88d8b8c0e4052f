package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"culturin/internal/domain"
	"culturin/internal/modules/notification"
	"culturin/internal/modules/payment"
	"culturin/internal/repository"
)

const (
	msgSelectItem      = "Please select an experience"
	msgSelectDate      = "Please select a date"
	msgSelectTime      = "Please select a time"
	msgRequiredFields  = "Please fill in all required fields"
	msgInvalidEmail    = "Please enter a valid email address"
	msgPaymentDetails  = "Please fill in all payment details"
	msgPersistFailed   = "We could not save your booking. Your payment has been refunded, please try again."
	msgPersistNoRefund = "We could not save your booking. Please contact support before trying again."
	msgPersistFree     = "We could not save your booking, please try again."
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has a local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// BookableItem is the experience being reserved. It is never mutated by a wizard.
type BookableItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	PricePerPerson float64  `json:"price_per_person"`
	Location       string   `json:"location"`
	Currency       string   `json:"currency,omitempty"`
	TimeSlots      []string `json:"time_slots,omitempty"`
}

func ItemFromExperience(e *domain.Experience) BookableItem {
	return BookableItem{
		ID:             e.ID,
		Title:          e.Title,
		PricePerPerson: e.PricePerPerson,
		Location:       e.Location,
		Currency:       e.Currency,
		TimeSlots:      append([]string(nil), e.TimeSlots...),
	}
}

func (i BookableItem) Validate() error {
	switch {
	case strings.TrimSpace(i.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	case strings.TrimSpace(i.Title) == "":
		return fmt.Errorf("%w: empty title", ErrInvalidItem)
	case i.PricePerPerson < 0 || math.IsNaN(i.PricePerPerson) || math.IsInf(i.PricePerPerson, 0):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidItem)
	}
	return nil
}

type Contact struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Draft is the in-progress reservation.
type Draft struct {
	Item    *BookableItem   `json:"item"`
	Date    *time.Time      `json:"date"`
	Time    string          `json:"time,omitempty"`
	Guests  int             `json:"guests"`
	Contact Contact         `json:"contact"`
	Payment payment.Details `json:"-"`
}

func (d Draft) clone() Draft {
	out := d
	if d.Item != nil {
		item := *d.Item
		item.TimeSlots = append([]string(nil), d.Item.TimeSlots...)
		out.Item = &item
	}
	if d.Date != nil {
		date := *d.Date
		out.Date = &date
	}
	return out
}

// Confirmation is produced once per wizard and never changes afterwards.
type Confirmation struct {
	Reference    string       `json:"reference"`
	Item         BookableItem `json:"item"`
	Date         time.Time    `json:"date"`
	Time         string       `json:"time,omitempty"`
	Guests       int          `json:"guests"`
	FeeRate      float64      `json:"fee_rate"`
	TotalPrice   float64      `json:"total_price"`
	Currency     string       `json:"currency"`
	ContactName  string       `json:"contact_name"`
	ContactEmail string       `json:"contact_email"`
	CardLast4    string       `json:"card_last4,omitempty"`
	ConfirmedAt  time.Time    `json:"confirmed_at"`
}

// State is a read-only snapshot of a wizard.
type State struct {
	Flow         Flow          `json:"flow"`
	Step         Step          `json:"step"`
	StepNumber   int           `json:"step_number"`
	StepCount    int           `json:"step_count"`
	Draft        Draft         `json:"draft"`
	Total        float64       `json:"total"`
	Fee          float64       `json:"fee"`
	Currency     string        `json:"currency"`
	Pending      bool          `json:"pending"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

type Options struct {
	Flow      Flow
	SessionID string
	FeeRate   float64
	Currency  string
	Gateway   payment.Gateway
	Bookings  BookingStore
	Notifier  notification.Notifier
	Log       *zap.Logger
	Now       func() time.Time
}

// Wizard is the booking state machine for one session. Methods are safe for
// concurrent use; a charge in flight blocks every mutation.
type Wizard struct {
	mu sync.Mutex

	flow      Flow
	sessionID string
	feeRate   float64
	currency  string
	gateway   payment.Gateway
	bookings  BookingStore
	notifier  notification.Notifier
	log       *zap.Logger
	now       func() time.Time

	step         Step
	draft        Draft
	pending      bool
	submits      int
	confirmation *Confirmation
	lastActive   time.Time
}

// NewWizard starts a wizard on the flow's initial step. The standard flow
// needs an item up front; the extended flow may start without one.
func NewWizard(item *BookableItem, opts Options) (*Wizard, error) {
	if opts.Flow == "" {
		opts.Flow = FlowStandard
	}
	if _, ok := flows[opts.Flow]; !ok {
		return nil, fmt.Errorf("unknown flow %q", opts.Flow)
	}
	if item == nil && opts.Flow == FlowStandard {
		return nil, fmt.Errorf("%w: item is required", ErrInvalidItem)
	}
	if item != nil {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Gateway == nil || opts.Bookings == nil {
		return nil, errors.New("booking wizard needs a payment gateway and a booking store")
	}
	if opts.FeeRate < 0 {
		return nil, errors.New("fee rate must be >= 0")
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.Nop
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}

	w := &Wizard{
		flow:      opts.Flow,
		sessionID: opts.SessionID,
		feeRate:   opts.FeeRate,
		currency:  opts.Currency,
		gateway:   opts.Gateway,
		bookings:  opts.Bookings,
		notifier:  opts.Notifier,
		log:       opts.Log,
		now:       opts.Now,
		step:      opts.Flow.Initial(),
		draft:     Draft{Guests: MinGuests},
	}
	if item != nil {
		w.draft = Draft{Item: cloneItem(*item), Guests: MinGuests}
	}
	w.lastActive = w.now()
	return w, nil
}

func cloneItem(i BookableItem) *BookableItem {
	i.TimeSlots = append([]string(nil), i.TimeSlots...)
	return &i
}

func (w *Wizard) mutable() error {
	if w.confirmation != nil {
		return ErrCompleted
	}
	if w.pending {
		return ErrPaymentInFlight
	}
	return nil
}

func (w *Wizard) update(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	w.lastActive = w.now()
	return nil
}

// SelectItem replaces the chosen experience. A time slot the new item does
// not offer is cleared.
func (w *Wizard) SelectItem(item BookableItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return w.update(func() error {
		w.draft.Item = cloneItem(item)
		if w.draft.Time != "" && len(item.TimeSlots) > 0 && !slices.Contains(item.TimeSlots, w.draft.Time) {
			w.draft.Time = ""
		}
		return nil
	})
}

// SetDate stores the start of d's day. Days before today are rejected.
func (w *Wizard) SetDate(d time.Time) error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return w.update(func() error {
		day := now.With(d).BeginningOfDay()
		today := now.With(w.now().In(d.Location())).BeginningOfDay()
		if day.Before(today) {
			return fmt.Errorf("%w: %s is in the past", ErrInvalidDate, day.Format(time.DateOnly))
		}
		w.draft.Date = &day
		return nil
	})
}

// SetTime stores an HH:MM slot, restricted to the item's slots when it lists any.
func (w *Wizard) SetTime(hhmm string) error {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
	}
	slot := t.Format("15:04")
	return w.update(func() error {
		if item := w.draft.Item; item != nil && len(item.TimeSlots) > 0 && !slices.Contains(item.TimeSlots, slot) {
			return fmt.Errorf("%w: %s is not offered", ErrInvalidTime, slot)
		}
		w.draft.Time = slot
		return nil
	})
}

// SetGuests clamps n to [MinGuests, MaxGuests].
func (w *Wizard) SetGuests(n int) error {
	return w.update(func() error {
		w.draft.Guests = clampGuests(n)
		return nil
	})
}

func (w *Wizard) IncrementGuests() error {
	return w.update(func() error {
		w.draft.Guests = clampGuests(w.draft.Guests + 1)
		return nil
	})
}

func (w *Wizard) DecrementGuests() error {
	return w.update(func() error {
		w.draft.Guests = clampGuests(w.draft.Guests - 1)
		return nil
	})
}

func (w *Wizard) SetContact(c Contact) error {
	return w.update(func() error {
		w.draft.Contact = c
		return nil
	})
}

func (w *Wizard) SetPayment(d payment.Details) error {
	return w.update(func() error {
		w.draft.Payment = d
		return nil
	})
}

// Back moves to the previous step without touching the draft. It is a no-op
// on the initial step.
func (w *Wizard) Back() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return w.step, err
	}
	if prev, ok := w.flow.prev(w.step); ok {
		w.step = prev
	}
	w.lastActive = w.now()
	return w.step, nil
}

// Next checks the current step's guard and advances. On the payment step it
// charges the guest and records the booking.
func (w *Wizard) Next(ctx context.Context) (Step, error) {
	w.mu.Lock()
	if err := w.mutable(); err != nil {
		w.mu.Unlock()
		return w.step, err
	}
	w.lastActive = w.now()
	n := notification.Multi(w.notifier, notification.FromContext(ctx))

	if w.step == StepPayment || w.step == StepPaymentFailed {
		return w.submit(ctx, n)
	}
	defer w.mu.Unlock()

	if gerr := w.guard(w.step); gerr != nil {
		n.Notify(notification.KindError, gerr.Message)
		return w.step, gerr
	}
	if next, ok := w.flow.next(w.step); ok {
		w.step = next
	}
	return w.step, nil
}

func (w *Wizard) guard(step Step) *GuardError {
	d := w.draft
	fail := func(msg string) *GuardError { return &GuardError{Step: step, Message: msg} }

	switch step {
	case StepSelectItem:
		if d.Item == nil {
			return fail(msgSelectItem)
		}
	case StepDateAndGuests, StepSelectDate:
		if d.Date == nil {
			return fail(msgSelectDate)
		}
	case StepSelectTime:
		if d.Time == "" {
			return fail(msgSelectTime)
		}
	case StepContactDetails:
		c := d.Contact
		if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" || strings.TrimSpace(c.Email) == "" {
			return fail(msgRequiredFields)
		}
		if !ValidEmail(strings.TrimSpace(c.Email)) {
			return fail(msgInvalidEmail)
		}
	case StepPayment, StepPaymentFailed:
		if !d.Payment.Complete() {
			return fail(msgPaymentDetails)
		}
	}
	return nil
}

// submit is entered with w.mu held and releases it while the charge runs.
func (w *Wizard) submit(ctx context.Context, n notification.Notifier) (Step, error) {
	if gerr := w.guard(StepPayment); gerr != nil {
		defer w.mu.Unlock()
		n.Notify(notification.KindError, gerr.Message)
		return w.step, gerr
	}
	if w.draft.Item == nil || w.draft.Date == nil {
		defer w.mu.Unlock()
		n.Notify(notification.KindError, msgSelectDate)
		return w.step, &GuardError{Step: w.step, Message: msgSelectDate}
	}

	w.pending = true
	w.submits++
	draft := w.draft.clone()
	total := w.total()
	currency := w.itemCurrency()
	key := payment.IdempotencyKey(w.sessionID, w.submits, total, currency)
	w.mu.Unlock()

	conf, step, err := w.settle(ctx, n, draft, total, currency, key)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false
	w.lastActive = w.now()
	w.step = step
	if conf != nil {
		w.confirmation = conf
	}
	return w.step, err
}

// settle runs without w.mu held. It returns the step the wizard moves to.
func (w *Wizard) settle(ctx context.Context, n notification.Notifier, d Draft, total float64, currency, key string) (*Confirmation, Step, error) {
	item := d.Item
	log := w.log.With(zap.String("session_id", w.sessionID), zap.String("experience_id", item.ID))

	charge := &payment.Charge{Provider: "none", Currency: currency}
	if total > 0 {
		var err error
		charge, err = w.gateway.Charge(ctx, payment.ChargeRequest{
			Amount:         total,
			Currency:       currency,
			Description:    item.Title,
			CustomerEmail:  strings.TrimSpace(d.Contact.Email),
			IdempotencyKey: key,
			Details:        d.Payment,
			Metadata: map[string]string{
				"session_id":    w.sessionID,
				"experience_id": item.ID,
			},
		})
		if err != nil {
			ce := payment.AsChargeError(err)
			log.Warn("charge failed", zap.String("code", ce.Code), zap.Bool("retryable", ce.Retryable))
			n.Notify(notification.KindError, paymentFailedMessage(ce))
			return nil, StepPaymentFailed, &PaymentError{Code: ce.Code, Reason: ce.Reason}
		}
	}

	confirmedAt := w.now().UTC()
	b := &domain.Booking{
		ExperienceID:   item.ID,
		ExperienceName: item.Title,
		Date:           *d.Date,
		TimeSlot:       d.Time,
		GuestCount:     d.Guests,
		PricePerPerson: item.PricePerPerson,
		FeeRate:        w.feeRate,
		TotalPrice:     total,
		Currency:       currency,
		ContactName:    d.Contact.FullName(),
		ContactEmail:   strings.TrimSpace(d.Contact.Email),
		ContactPhone:   strings.TrimSpace(d.Contact.Phone),
		Requests:       strings.TrimSpace(d.Contact.SpecialRequests),
		ChargeID:       charge.ID,
		Status:         domain.BookingConfirmed,
		CreatedAt:      confirmedAt,
	}

	// the guest has paid; the record must be written even if the caller gave up
	pctx := context.WithoutCancel(ctx)
	if err := w.record(pctx, b); err != nil {
		log.Error("failed to record booking", zap.String("charge_id", charge.ID), zap.Error(err))
		if charge.ID == "" {
			n.Notify(notification.KindError, msgPersistFree)
		} else if rerr := w.gateway.Refund(pctx, charge.ID, total); rerr != nil {
			log.Error("refund after failed booking insert failed", zap.String("charge_id", charge.ID), zap.Error(rerr))
			n.Notify(notification.KindError, msgPersistNoRefund)
		} else {
			n.Notify(notification.KindError, msgPersistFailed)
		}
		return nil, StepPayment, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	conf := &Confirmation{
		Reference:    b.Reference,
		Item:         *cloneItem(*item),
		Date:         b.Date,
		Time:         b.TimeSlot,
		Guests:       b.GuestCount,
		FeeRate:      w.feeRate,
		TotalPrice:   total,
		Currency:     currency,
		ContactName:  b.ContactName,
		ContactEmail: b.ContactEmail,
		CardLast4:    d.Payment.Last4(),
		ConfirmedAt:  confirmedAt,
	}
	log.Info("booking confirmed", zap.String("reference", conf.Reference), zap.Float64("total", total))
	n.Notify(notification.KindSuccess, "Booking confirmed! Your reference is "+conf.Reference)
	return conf, StepConfirmation, nil
}

// record inserts b, regenerating the reference once on a collision.
func (w *Wizard) record(ctx context.Context, b *domain.Booking) error {
	var err error
	for i := 0; i < 2; i++ {
		if b.Reference, err = NewReference(); err != nil {
			return err
		}
		err = w.bookings.Create(ctx, b)
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return err
		}
	}
	return err
}

func paymentFailedMessage(ce *payment.ChargeError) string {
	switch ce.Code {
	case payment.CodeTimeout:
		return "Payment timed out. You have not been charged, please try again."
	case payment.CodeMissingMethod:
		return "Payment failed: please re-enter your card."
	default:
		return "Payment failed: your card was declined. Please check your details and try again."
	}
}

func (w *Wizard) total() float64 {
	if w.draft.Item == nil {
		return 0
	}
	return Total(w.draft.Item.PricePerPerson, w.draft.Guests, w.feeRate)
}

// itemCurrency is the selected item's currency, or the default when the
// item does not name one. Callers hold w.mu.
func (w *Wizard) itemCurrency() string {
	if w.draft.Item != nil && w.draft.Item.Currency != "" {
		return strings.ToLower(w.draft.Item.Currency)
	}
	return w.currency
}

// Total is recomputed from the current draft on every call.
func (w *Wizard) Total() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total()
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// Confirmation returns a copy of the confirmation, or false before the
// booking is confirmed.
func (w *Wizard) Confirmation() (Confirmation, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.confirmation == nil {
		return Confirmation{}, false
	}
	c := *w.confirmation
	c.Item = *cloneItem(c.Item)
	return c, true
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		Flow:       w.flow,
		Step:       w.step,
		StepNumber: w.flow.Number(w.step),
		StepCount:  len(flows[w.flow]),
		Draft:      w.draft.clone(),
		Total:      w.total(),
		Currency:   w.itemCurrency(),
		Pending:    w.pending,
	}
	if w.draft.Item != nil {
		s.Fee = Fee(w.draft.Item.PricePerPerson, w.draft.Guests, w.feeRate)
	}
	if w.confirmation != nil {
		c := *w.confirmation
		c.Item = *cloneItem(c.Item)
		s.Confirmation = &c
	}
	return s
}

// LastActive is the time of the last operation on the wizard.
func (w *Wizard) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}
