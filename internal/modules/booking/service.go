package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"culturin/internal/domain"
	"culturin/internal/modules/notification"
	"culturin/internal/modules/payment"
	"culturin/internal/repository"
)

type Config struct {
	FeeRate  float64
	Currency string
	IdleTTL  time.Duration
}

type session struct {
	id        string
	wizard    *Wizard
	createdAt time.Time
}

// Service owns the live booking sessions. Sessions are kept in memory only;
// a restart discards every unfinished draft.
type Service struct {
	catalog  Catalog
	bookings BookingStore
	gateway  payment.Gateway
	pusher   Pusher
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewService(
	catalog Catalog,
	bookings BookingStore,
	gateway payment.Gateway,
	pusher Pusher,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Service{
		catalog:  catalog,
		bookings: bookings,
		gateway:  gateway,
		pusher:   pusher,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *Service) lookupItem(ctx context.Context, id string) (*BookableItem, error) {
	e, err := s.catalog.GetBookableItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	item := ItemFromExperience(e)
	return &item, nil
}

func (s *Service) Start(ctx context.Context, req StartRequest) (*SessionResponse, error) {
	flow, ok := ParseFlow(req.Flow)
	if !ok {
		return nil, ErrUnknownFlow
	}

	var item *BookableItem
	if req.ExperienceID != "" {
		var err error
		if item, err = s.lookupItem(ctx, req.ExperienceID); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	notifiers := []notification.Notifier{
		notification.NewLogNotifier(s.log, zap.String("session_id", id)),
	}
	if s.pusher != nil {
		notifiers = append(notifiers, s.pusher.Notifier(id))
	}

	w, err := NewWizard(item, Options{
		Flow:      flow,
		SessionID: id,
		FeeRate:   s.cfg.FeeRate,
		Currency:  s.cfg.Currency,
		Gateway:   s.gateway,
		Bookings:  s.bookings,
		Notifier:  notification.Multi(notifiers...),
		Log:       s.log,
		Now:       s.now,
	})
	if err != nil {
		return nil, err
	}

	sess := &session{id: id, wizard: w, createdAt: s.now()}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info("booking session started",
		zap.String("session_id", id),
		zap.String("flow", string(flow)),
		zap.String("experience_id", req.ExperienceID),
	)
	return s.respond(sess, nil), nil
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) respond(sess *session, outbox *notification.Outbox) *SessionResponse {
	toasts := []notification.Toast{}
	if outbox != nil {
		toasts = outbox.Drain()
	}
	return &SessionResponse{
		SessionID: sess.id,
		State:     sess.wizard.State(),
		Toasts:    toasts,
	}
}

// apply runs op against a session. Toasts op emits through its context are
// collected for this call only and returned with the resulting state,
// including on error.
func (s *Service) apply(ctx context.Context, id string, op func(ctx context.Context, w *Wizard) error) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	outbox := notification.NewOutbox()
	err = op(notification.WithNotifier(ctx, outbox), sess.wizard)
	return s.respond(sess, outbox), err
}

// mutate is apply for operations that never notify.
func (s *Service) mutate(id string, op func(w *Wizard) error) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	err = op(sess.wizard)
	return s.respond(sess, nil), err
}

func (s *Service) Get(id string) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.respond(sess, nil), nil
}

// Cancel discards a session. A session with a charge in flight cannot be cancelled.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	if sess.wizard.State().Pending {
		s.mu.Unlock()
		return ErrPaymentInFlight
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	if s.pusher != nil {
		s.pusher.CloseTopic(id)
	}
	s.log.Info("booking session cancelled", zap.String("session_id", id))
	return nil
}

func (s *Service) SelectItem(ctx context.Context, id, experienceID string) (*SessionResponse, error) {
	if _, err := s.session(id); err != nil {
		return nil, err
	}
	item, err := s.lookupItem(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, func(w *Wizard) error { return w.SelectItem(*item) })
}

func (s *Service) SetDate(id string, d time.Time) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error { return w.SetDate(d) })
}

func (s *Service) SetTime(id, hhmm string) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error { return w.SetTime(hhmm) })
}

func (s *Service) SetGuests(id string, n int) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error { return w.SetGuests(n) })
}

func (s *Service) IncrementGuests(id string) (*SessionResponse, error) {
	return s.mutate(id, (*Wizard).IncrementGuests)
}

func (s *Service) DecrementGuests(id string) (*SessionResponse, error) {
	return s.mutate(id, (*Wizard).DecrementGuests)
}

func (s *Service) SetContact(id string, c Contact) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error { return w.SetContact(c) })
}

func (s *Service) SetPayment(id string, d payment.Details) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error { return w.SetPayment(d) })
}

func (s *Service) Next(ctx context.Context, id string) (*SessionResponse, error) {
	return s.apply(ctx, id, func(ctx context.Context, w *Wizard) error {
		_, err := w.Next(ctx)
		return err
	})
}

func (s *Service) Back(id string) (*SessionResponse, error) {
	return s.mutate(id, func(w *Wizard) error {
		_, err := w.Back()
		return err
	})
}

func (s *Service) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	if !IsReference(reference) {
		return nil, ErrBookingNotFound
	}
	b, err := s.bookings.GetByReference(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Sweep drops sessions idle for longer than idle and returns how many were
// removed. Sessions with a charge in flight are kept.
func (s *Service) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var dropped []string
	for id, sess := range s.sessions {
		if sess.wizard.LastActive().Before(cutoff) && !sess.wizard.State().Pending {
			delete(s.sessions, id)
			dropped = append(dropped, id)
		}
	}
	s.mu.Unlock()

	if s.pusher != nil {
		for _, id := range dropped {
			s.pusher.CloseTopic(id)
		}
	}
	if len(dropped) > 0 {
		s.log.Info("swept idle booking sessions", zap.Int("count", len(dropped)))
	}
	return len(dropped)
}

// RunSweeper calls Sweep with the configured idle TTL every interval until
// ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.cfg.IdleTTL)
		}
	}
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
