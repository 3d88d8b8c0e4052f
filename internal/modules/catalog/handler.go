package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"culturin/internal/middleware"
	"culturin/internal/pkg/jwt"
	"culturin/internal/pkg/response"
	"culturin/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/experiences", h.List)
	rg.GET("/experiences/:id", h.Get)

	operators := rg.Group("/operators/:slug", auth, middleware.RequireRole(jwt.RoleOperator), middleware.RequireOwnSlug())
	{
		operators.PUT("/experiences/:id", h.Upsert)
	}
}

// List handles GET /experiences?operator=&page=&limit=
func (h *Handler) List(c *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}

	items, err := h.service.List(c.Request.Context(), c.Query("operator"), limit, (page-1)*limit)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load experiences")
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Experiences: items, Page: page, Limit: limit})
}

func (h *Handler) Get(c *gin.Context) {
	e, err := h.service.GetBookableItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Experience not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load experience")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"experience": e})
}

func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, fields, err := h.service.Save(c.Request.Context(), c.Param("slug"), c.Param("id"), req)
	switch {
	case errors.Is(err, ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid experience", fields)
		return
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Experience belongs to another operator")
		return
	case err != nil:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save experience")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"experience": e})
}
