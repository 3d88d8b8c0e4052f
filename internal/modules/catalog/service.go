package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"culturin/internal/domain"
	"culturin/internal/pkg/validator"
	"culturin/internal/repository"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
)

type ExperienceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Experience, error)
	List(ctx context.Context, operatorSlug string, limit, offset int) ([]domain.Experience, error)
	Upsert(ctx context.Context, e *domain.Experience) error
}

type Service struct {
	experiences ExperienceRepository
	currency    string
}

func NewService(experiences ExperienceRepository, defaultCurrency string) *Service {
	return &Service{experiences: experiences, currency: defaultCurrency}
}

// GetBookableItem returns an active experience. Missing or inactive
// experiences yield an error wrapping repository.ErrNotFound.
func (s *Service) GetBookableItem(ctx context.Context, id string) (*domain.Experience, error) {
	e, err := s.experiences.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("experience %q: %w", id, err)
	}
	if e.Currency == "" {
		e.Currency = s.currency
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, operatorSlug string, limit, offset int) ([]domain.Experience, error) {
	return s.experiences.List(ctx, operatorSlug, limit, offset)
}

// Save creates or replaces an experience owned by operatorSlug.
func (s *Service) Save(ctx context.Context, operatorSlug, id string, req UpsertExperienceRequest) (*domain.Experience, map[string]string, error) {
	existing, err := s.experiences.GetByID(ctx, id)
	switch {
	case err == nil && existing.OperatorSlug != operatorSlug:
		return nil, nil, ErrForbidden
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, nil, err
	}

	e := &domain.Experience{
		ID:             id,
		OperatorSlug:   operatorSlug,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Location:       req.Location,
		PricePerPerson: req.PricePerPerson,
		Currency:       strings.ToLower(req.Currency),
		DurationMin:    req.DurationMin,
		TimeSlots:      req.TimeSlots,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	if e.Currency == "" {
		e.Currency = s.currency
	}
	if existing != nil {
		e.CreatedAt = existing.CreatedAt
	}
	if fields := validator.Validate(e); fields != nil {
		return nil, fields, ErrValidation
	}

	if err := s.experiences.Upsert(ctx, e); err != nil {
		return nil, nil, err
	}
	return e, nil, nil
}
