package site

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"culturin/internal/pkg/kvstore"
	"culturin/internal/pkg/validator"
)

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrValidation   = errors.New("validation error")
)

// Settings drive an operator's published micro-site.
type Settings struct {
	Slug          string    `json:"slug" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Tagline       string    `json:"tagline,omitempty"`
	PrimaryColor  string    `json:"primary_color,omitempty"`
	LogoURL       string    `json:"logo_url,omitempty" validate:"omitempty,url"`
	ContactEmail  string    `json:"contact_email,omitempty" validate:"omitempty,email"`
	ProAccess     bool      `json:"pro_access"`
	ExperienceIDs []string  `json:"experience_ids,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type View struct {
	Settings Settings `json:"settings"`
	Theme    Theme    `json:"theme"`
}

func settingsKey(slug string) string { return "site:" + slug }

type Service struct {
	store kvstore.Store
	log   *zap.Logger
	now   func() time.Time

	mu      sync.Mutex
	themes  map[string]cachedTheme
	cancels map[string]func()
}

func NewService(store kvstore.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		log:     log,
		now:     time.Now,
		themes:  make(map[string]cachedTheme),
		cancels: make(map[string]func()),
	}
}

func (s *Service) load(ctx context.Context, slug string) (*Settings, error) {
	raw, err := s.store.Get(ctx, settingsKey(slug))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	var st Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) Get(ctx context.Context, slug string) (*View, error) {
	st, err := s.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &View{Settings: *st, Theme: s.theme(slug, st.PrimaryColor)}, nil
}

type cachedTheme struct {
	color string
	theme Theme
}

// theme returns the cached theme for slug when it was resolved from color,
// resolving and caching it otherwise. The cache entry is dropped whenever
// the settings key changes.
func (s *Service) theme(slug, color string) Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.themes[slug]; ok && c.color == color {
		return c.theme
	}
	t := ResolveTheme(color)
	s.themes[slug] = cachedTheme{color: color, theme: t}

	if _, watching := s.cancels[slug]; !watching {
		s.cancels[slug] = s.store.Subscribe(settingsKey(slug), func([]byte) {
			s.invalidate(slug)
		})
	}
	return t
}

func (s *Service) invalidate(slug string) {
	s.mu.Lock()
	delete(s.themes, slug)
	s.mu.Unlock()
}

// Save validates and stores the settings for slug. Field errors are
// returned alongside ErrValidation.
func (s *Service) Save(ctx context.Context, slug string, req UpdateSettingsRequest) (*View, map[string]string, error) {
	st := Settings{
		Slug:          slug,
		Name:          strings.TrimSpace(req.Name),
		Tagline:       strings.TrimSpace(req.Tagline),
		PrimaryColor:  strings.ToLower(strings.TrimSpace(req.PrimaryColor)),
		LogoURL:       req.LogoURL,
		ContactEmail:  req.ContactEmail,
		ProAccess:     req.ProAccess,
		ExperienceIDs: req.ExperienceIDs,
		UpdatedAt:     s.now().UTC(),
	}

	fields := validator.Validate(st)
	if st.PrimaryColor != "" && !ValidColor(st.PrimaryColor) {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["PrimaryColor"] = "hexcolor"
	}
	if fields != nil {
		return nil, fields, ErrValidation
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.Set(ctx, settingsKey(slug), raw); err != nil {
		return nil, nil, err
	}
	// remote stores deliver the change notification asynchronously
	s.invalidate(slug)
	s.log.Info("site settings saved", zap.String("slug", slug), zap.Bool("pro_access", st.ProAccess))

	return &View{Settings: st, Theme: s.theme(slug, st.PrimaryColor)}, nil, nil
}

// Close releases every store subscription.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, cancel := range s.cancels {
		cancel()
		delete(s.cancels, slug)
	}
}
