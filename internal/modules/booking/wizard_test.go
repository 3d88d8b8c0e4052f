package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"culturin/internal/domain"
	"culturin/internal/modules/notification"
	"culturin/internal/modules/payment"
	"culturin/internal/repository"
)

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		b.ID = 999
	}
	return args.Error(0)
}

func (m *MockBookingStore) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, chargeID string, amount float64) error {
	return m.Called(ctx, chargeID, amount).Error(0)
}

var (
	fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	teaItem  = BookableItem{ID: "tea", Title: "Tea Ceremony", PricePerPerson: 65, Location: "Kyoto", TimeSlots: []string{"10:00", "14:00"}}
	goodCard = payment.Details{CardNumber: "4242424242424242", CardName: "Jane Doe", CardExpiry: "12/30", CardCVC: "123"}
	jane     = Contact{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
)

type fixture struct {
	wizard  *Wizard
	outbox  *notification.Outbox
	store   *MockBookingStore
	gateway payment.Gateway
}

func newFixture(t *testing.T, flow Flow, item *BookableItem, gw payment.Gateway) *fixture {
	t.Helper()
	if gw == nil {
		gw = payment.NewSimulated(payment.SimulatedConfig{})
	}
	store := new(MockBookingStore)
	outbox := notification.NewOutbox()
	w, err := NewWizard(item, Options{
		Flow:      flow,
		SessionID: "sess-1",
		FeeRate:   0.05,
		Currency:  "usd",
		Gateway:   gw,
		Bookings:  store,
		Notifier:  outbox,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{wizard: w, outbox: outbox, store: store, gateway: gw}
}

func day(d int) time.Time {
	return time.Date(2026, 5, d, 15, 30, 0, 0, time.UTC)
}

// toPayment drives a standard wizard up to the payment step.
func (f *fixture) toPayment(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.wizard.SetDate(day(10)))
	require.NoError(t, f.wizard.SetGuests(2))
	_, err := f.wizard.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, f.wizard.SetContact(jane))
	step, err := f.wizard.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, StepPayment, step)
	f.outbox.Drain()
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 136.5, Total(65, 2, 0.05))
	assert.Equal(t, 0.0, Total(0, 5, 0.05))
	assert.Equal(t, 6.5, Fee(65, 2, 0.05))

	prev := Total(19.99, MinGuests, 0.05)
	for g := MinGuests + 1; g <= MaxGuests; g++ {
		cur := Total(19.99, g, 0.05)
		assert.Greater(t, cur, prev, "guests=%d", g)
		prev = cur
	}
}

func TestWizard_GuestClamping(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)

	tests := []struct {
		in   int
		want int
	}{
		{-5, 1}, {0, 1}, {1, 1}, {4, 4}, {10, 10}, {11, 10}, {1000, 10},
	}
	for _, tt := range tests {
		require.NoError(t, f.wizard.SetGuests(tt.in))
		assert.Equal(t, tt.want, f.wizard.Draft().Guests, "SetGuests(%d)", tt.in)
	}

	require.NoError(t, f.wizard.IncrementGuests())
	assert.Equal(t, 10, f.wizard.Draft().Guests)

	require.NoError(t, f.wizard.SetGuests(1))
	require.NoError(t, f.wizard.DecrementGuests())
	assert.Equal(t, 1, f.wizard.Draft().Guests)

	require.NoError(t, f.wizard.IncrementGuests())
	assert.Equal(t, 2, f.wizard.Draft().Guests)
	assert.Equal(t, 136.5, f.wizard.Total())
}

func TestWizard_NextWithoutDateIsBlocked(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)

	step, err := f.wizard.Next(context.Background())

	var guard *GuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "Please select a date", guard.Message)
	assert.Equal(t, StepDateAndGuests, step)
	assert.Equal(t, StepDateAndGuests, f.wizard.Step())

	toasts := f.outbox.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notification.KindError, toasts[0].Kind)
	assert.Equal(t, "Please select a date", toasts[0].Message)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.c"))
	assert.True(t, ValidEmail("jane@example.com"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("a b@c.d"))
	assert.False(t, ValidEmail("a@b"))
}

func TestWizard_ContactGuard(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		message string
	}{
		{"missing first name", Contact{LastName: "Doe", Email: "jane@example.com"}, "Please fill in all required fields"},
		{"blank email", Contact{FirstName: "Jane", LastName: "Doe", Email: "  "}, "Please fill in all required fields"},
		{"bad email", Contact{FirstName: "Jane", LastName: "Doe", Email: "not-an-email"}, "Please enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, FlowStandard, &teaItem, nil)
			require.NoError(t, f.wizard.SetDate(day(10)))
			_, err := f.wizard.Next(context.Background())
			require.NoError(t, err)

			require.NoError(t, f.wizard.SetContact(tt.contact))
			step, err := f.wizard.Next(context.Background())

			var guard *GuardError
			require.ErrorAs(t, err, &guard)
			assert.Equal(t, tt.message, guard.Message)
			assert.Equal(t, StepContactDetails, step)

			toasts := f.outbox.Drain()
			require.Len(t, toasts, 1)
			assert.Equal(t, tt.message, toasts[0].Message)
		})
	}
}

func TestWizard_PaymentGuard(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)

	partial := goodCard
	partial.CardExpiry = ""
	require.NoError(t, f.wizard.SetPayment(partial))

	step, err := f.wizard.Next(context.Background())
	var guard *GuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "Please fill in all payment details", guard.Message)
	assert.Equal(t, StepPayment, step)
	assert.Len(t, f.outbox.Drain(), 1)
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWizard_CompleteBooking(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))

	f.store.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ExperienceID == "tea" && b.GuestCount == 2 && b.TotalPrice == 136.5 &&
			b.ContactName == "Jane Doe" && b.ChargeID != "" && b.Status == domain.BookingConfirmed
	})).Return(nil).Once()

	step, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)

	conf, ok := f.wizard.Confirmation()
	require.True(t, ok)
	assert.True(t, IsReference(conf.Reference), conf.Reference)
	assert.Equal(t, 136.5, conf.TotalPrice)
	assert.Equal(t, 2, conf.Guests)
	assert.Equal(t, "jane@example.com", conf.ContactEmail)
	assert.Equal(t, "4242", conf.CardLast4)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), conf.Date)

	toasts := f.outbox.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notification.KindSuccess, toasts[0].Kind)
	assert.Contains(t, toasts[0].Message, conf.Reference)

	f.store.AssertExpectations(t)
}

func TestWizard_BackThenForwardKeepsDraft(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))
	before := f.wizard.Draft()

	for i := 0; i < 5; i++ {
		_, err := f.wizard.Back()
		require.NoError(t, err)
	}
	assert.Equal(t, StepDateAndGuests, f.wizard.Step())
	assert.Equal(t, before, f.wizard.Draft())

	ctx := context.Background()
	_, err := f.wizard.Next(ctx)
	require.NoError(t, err)
	step, err := f.wizard.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, step)
	assert.Equal(t, before, f.wizard.Draft())
	assert.Empty(t, f.outbox.Drain())
}

func TestWizard_ConfirmationIsFinal(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	conf, _ := f.wizard.Confirmation()

	ops := map[string]func() error{
		"SelectItem":      func() error { return f.wizard.SelectItem(teaItem) },
		"SetDate":         func() error { return f.wizard.SetDate(day(20)) },
		"SetTime":         func() error { return f.wizard.SetTime("14:00") },
		"SetGuests":       func() error { return f.wizard.SetGuests(5) },
		"IncrementGuests": f.wizard.IncrementGuests,
		"DecrementGuests": f.wizard.DecrementGuests,
		"SetContact":      func() error { return f.wizard.SetContact(Contact{FirstName: "X"}) },
		"SetPayment":      func() error { return f.wizard.SetPayment(payment.Details{}) },
		"Next":            func() error { _, err := f.wizard.Next(context.Background()); return err },
		"Back":            func() error { _, err := f.wizard.Back(); return err },
	}
	for name, op := range ops {
		assert.ErrorIs(t, op(), ErrCompleted, name)
	}

	conf.Item.Title = "changed"
	conf.TotalPrice = 1
	again, ok := f.wizard.Confirmation()
	require.True(t, ok)
	assert.Equal(t, "Tea Ceremony", again.Item.Title)
	assert.Equal(t, 136.5, again.TotalPrice)
	assert.Equal(t, StepConfirmation, f.wizard.Step())
	f.store.AssertNumberOfCalls(t, "Create", 1)
}

func TestWizard_DeclinedPaymentCanBeRetried(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)

	declined := goodCard
	declined.CardNumber = "4000000000000002"
	require.NoError(t, f.wizard.SetPayment(declined))

	step, err := f.wizard.Next(context.Background())
	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, payment.CodeCardDeclined, payErr.Code)
	assert.Equal(t, StepPaymentFailed, step)

	toasts := f.outbox.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notification.KindError, toasts[0].Kind)

	step, err = f.wizard.Back()
	require.NoError(t, err)
	assert.Equal(t, StepPayment, step)
	assert.Equal(t, 4, f.wizard.State().StepNumber)
	assert.Equal(t, jane, f.wizard.Draft().Contact)

	require.NoError(t, f.wizard.SetPayment(goodCard))
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	step, err = f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)
}

func TestWizard_NextFromPaymentFailedRetries(t *testing.T) {
	gw := new(MockGateway)
	f := newFixture(t, FlowStandard, &teaItem, gw)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))

	var keys []string
	gw.On("Charge", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.Get(1).(payment.ChargeRequest).IdempotencyKey) }).
		Return(nil, &payment.ChargeError{Code: payment.CodeTimeout}).Once()
	gw.On("Charge", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.Get(1).(payment.ChargeRequest).IdempotencyKey) }).
		Return(&payment.Charge{ID: "ch_2"}, nil).Once()
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	step, _ := f.wizard.Next(context.Background())
	require.Equal(t, StepPaymentFailed, step)

	step, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
	gw.AssertExpectations(t)
}

func TestWizard_PersistenceFailureRefunds(t *testing.T) {
	gw := new(MockGateway)
	f := newFixture(t, FlowStandard, &teaItem, gw)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))

	gw.On("Charge", mock.Anything, mock.Anything).Return(&payment.Charge{ID: "ch_1", Amount: 136.5}, nil).Once()
	gw.On("Refund", mock.Anything, "ch_1", 136.5).Return(nil).Once()
	f.store.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	step, err := f.wizard.Next(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, StepPayment, step)
	_, ok := f.wizard.Confirmation()
	assert.False(t, ok)

	toasts := f.outbox.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notification.KindError, toasts[0].Kind)
	assert.Contains(t, toasts[0].Message, "refunded")

	gw.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestWizard_DuplicateReferenceRegenerates(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))

	var refs []string
	record := func(args mock.Arguments) { refs = append(refs, args.Get(1).(*domain.Booking).Reference) }
	f.store.On("Create", mock.Anything, mock.Anything).Run(record).Return(repository.ErrDuplicateReference).Once()
	f.store.On("Create", mock.Anything, mock.Anything).Run(record).Return(nil).Once()

	step, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)
	require.Len(t, refs, 2)
	assert.NotEqual(t, refs[0], refs[1])

	conf, _ := f.wizard.Confirmation()
	assert.Equal(t, refs[1], conf.Reference)
}

func TestWizard_FreeItemSkipsGateway(t *testing.T) {
	free := teaItem
	free.PricePerPerson = 0
	gw := new(MockGateway)
	f := newFixture(t, FlowStandard, &free, gw)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	step, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)
	gw.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)

	b := f.store.Calls[0].Arguments.Get(1).(*domain.Booking)
	assert.Empty(t, b.ChargeID)
	assert.Equal(t, 0.0, b.TotalPrice)
}

func TestWizard_ChargesInItemCurrency(t *testing.T) {
	eurItem := teaItem
	eurItem.Currency = "EUR"
	gw := new(MockGateway)
	f := newFixture(t, FlowStandard, &eurItem, gw)
	assert.Equal(t, "eur", f.wizard.State().Currency)

	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))

	gw.On("Charge", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
		return req.Currency == "eur" && req.Amount == 136.5 &&
			req.IdempotencyKey == payment.IdempotencyKey("sess-1", 1, 136.5, "eur")
	})).Return(&payment.Charge{ID: "ch_eur", Amount: 136.5, Currency: "eur"}, nil).Once()
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Currency == "eur"
	})).Return(nil).Once()

	step, err := f.wizard.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, step)

	conf, ok := f.wizard.Confirmation()
	require.True(t, ok)
	assert.Equal(t, "eur", conf.Currency)
	gw.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

type blockingGateway struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *blockingGateway) Name() string { return "blocking" }

func (g *blockingGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return &payment.Charge{ID: "ch_block", Amount: req.Amount}, nil
}

func (g *blockingGateway) Refund(context.Context, string, float64) error { return nil }

func TestWizard_RejectsChangesWhilePaymentInFlight(t *testing.T) {
	gw := &blockingGateway{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, FlowStandard, &teaItem, gw)
	f.toPayment(t)
	require.NoError(t, f.wizard.SetPayment(goodCard))
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.wizard.Next(context.Background())
		done <- err
	}()
	<-gw.started

	assert.True(t, f.wizard.State().Pending)
	assert.ErrorIs(t, f.wizard.SetGuests(3), ErrPaymentInFlight)
	_, err := f.wizard.Next(context.Background())
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	_, err = f.wizard.Back()
	assert.ErrorIs(t, err, ErrPaymentInFlight)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, StepConfirmation, f.wizard.Step())
	assert.False(t, f.wizard.State().Pending)
	f.store.AssertNumberOfCalls(t, "Create", 1)
}

func TestNewWizard_RejectsMalformedItem(t *testing.T) {
	opts := Options{Gateway: payment.NewSimulated(payment.SimulatedConfig{}), Bookings: new(MockBookingStore)}

	for _, item := range []BookableItem{
		{ID: "", Title: "x"},
		{ID: "x", Title: ""},
		{ID: "x", Title: "x", PricePerPerson: -1},
	} {
		_, err := NewWizard(&item, opts)
		assert.ErrorIs(t, err, ErrInvalidItem)
	}

	_, err := NewWizard(nil, opts)
	assert.ErrorIs(t, err, ErrInvalidItem)

	opts.Flow = FlowExtended
	w, err := NewWizard(nil, opts)
	require.NoError(t, err)
	assert.Equal(t, StepSelectItem, w.Step())
}

func TestWizard_SetDateAndTime(t *testing.T) {
	f := newFixture(t, FlowStandard, &teaItem, nil)

	assert.ErrorIs(t, f.wizard.SetDate(time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC)), ErrInvalidDate)
	assert.ErrorIs(t, f.wizard.SetDate(time.Time{}), ErrInvalidDate)

	require.NoError(t, f.wizard.SetDate(fixedNow))
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *f.wizard.Draft().Date)

	assert.ErrorIs(t, f.wizard.SetTime("25:00"), ErrInvalidTime)
	assert.ErrorIs(t, f.wizard.SetTime("11:00"), ErrInvalidTime)
	require.NoError(t, f.wizard.SetTime("14:00"))
	assert.Equal(t, "14:00", f.wizard.Draft().Time)
}

func TestWizard_ExtendedFlow(t *testing.T) {
	f := newFixture(t, FlowExtended, nil, nil)
	ctx := context.Background()

	_, err := f.wizard.Next(ctx)
	var guard *GuardError
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "Please select an experience", guard.Message)

	require.NoError(t, f.wizard.SelectItem(teaItem))
	step, err := f.wizard.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepSelectDate, step)

	require.NoError(t, f.wizard.SetDate(day(12)))
	step, err = f.wizard.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepSelectTime, step)

	_, err = f.wizard.Next(ctx)
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, "Please select a time", guard.Message)

	require.NoError(t, f.wizard.SetTime("10:00"))
	step, err = f.wizard.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepContactDetails, step)

	state := f.wizard.State()
	assert.Equal(t, 4, state.StepNumber)
	assert.Equal(t, 6, state.StepCount)

	require.NoError(t, f.wizard.SelectItem(BookableItem{ID: "walk", Title: "Night Walk", PricePerPerson: 30, TimeSlots: []string{"20:00"}}))
	assert.Equal(t, "", f.wizard.Draft().Time)
	assert.Len(t, f.outbox.Drain(), 2)
}

func TestReference(t *testing.T) {
	a, err := NewReference()
	require.NoError(t, err)
	b, err := NewReference()
	require.NoError(t, err)

	assert.Len(t, a, len("CUL-")+26)
	assert.True(t, IsReference(a))
	assert.NotEqual(t, a, b)
	assert.False(t, IsReference("CUL-123"))
	assert.False(t, IsReference("ABC-01J9Z3K8M4X2V7QH5N6TB0RSEW"))
}
