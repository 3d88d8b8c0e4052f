package site

type UpdateSettingsRequest struct {
	Name          string   `json:"name" binding:"required"`
	Tagline       string   `json:"tagline"`
	PrimaryColor  string   `json:"primary_color"`
	LogoURL       string   `json:"logo_url"`
	ContactEmail  string   `json:"contact_email"`
	ProAccess     bool     `json:"pro_access"`
	ExperienceIDs []string `json:"experience_ids"`
}
