package catalog

import "culturin/internal/domain"

type UpsertExperienceRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	PricePerPerson float64  `json:"price_per_person" binding:"gte=0"`
	Currency       string   `json:"currency" binding:"omitempty,len=3"`
	DurationMin    int      `json:"duration_minutes" binding:"gte=0"`
	TimeSlots      []string `json:"time_slots" binding:"omitempty,dive,datetime=15:04"`
	IsActive       *bool    `json:"is_active"`
}

type ListResponse struct {
	Experiences []domain.Experience `json:"experiences"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
}
