package site

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"culturin/internal/middleware"
	"culturin/internal/pkg/jwt"
	"culturin/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	sites := rg.Group("/sites")
	{
		sites.GET("/:slug", h.Get)
		sites.PUT("/:slug", auth, middleware.RequireRole(jwt.RoleOperator), middleware.RequireOwnSlug(), h.Update)
	}
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, ErrSiteNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Site not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load site")
		return
	}
	response.Success(c, http.StatusOK, v)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	v, fields, err := h.service.Save(c.Request.Context(), c.Param("slug"), req)
	if errors.Is(err, ErrValidation) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid site settings", fields)
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save site")
		return
	}
	response.Success(c, http.StatusOK, v)
}
