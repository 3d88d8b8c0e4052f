package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"culturin/internal/domain"
)

var ErrNotFound = errors.New("record not found")

type ExperienceRepository struct {
	db *gorm.DB
}

func NewExperienceRepository(db *gorm.DB) *ExperienceRepository {
	return &ExperienceRepository{db: db}
}

func (r *ExperienceRepository) GetByID(ctx context.Context, id string) (*domain.Experience, error) {
	var e domain.Experience
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns active experiences, optionally limited to one operator.
func (r *ExperienceRepository) List(ctx context.Context, operatorSlug string, limit, offset int) ([]domain.Experience, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if operatorSlug != "" {
		q = q.Where("operator_slug = ?", operatorSlug)
	}

	var out []domain.Experience
	if err := q.Order("title ASC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts or fully replaces an experience by id.
func (r *ExperienceRepository) Upsert(ctx context.Context, e *domain.Experience) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(e).Error
}
