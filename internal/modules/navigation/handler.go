package navigation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"culturin/internal/pkg/response"
)

type Handler struct {
	router *Router
}

func NewHandler(router *Router) *Handler {
	if router == nil {
		router = Default()
	}
	return &Handler{router: router}
}

type ResolveResponse struct {
	Location Location          `json:"location"`
	Pattern  string            `json:"pattern,omitempty"`
	Params   map[string]string `json:"params"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/navigation/resolve", h.Resolve)
}

// RegisterRedirect mounts the navigate endpoint outside the API prefix.
func (h *Handler) RegisterRedirect(r gin.IRoutes) {
	r.GET("/go", h.Go)
}

func (h *Handler) Resolve(c *gin.Context) {
	raw := c.Query("path")
	if raw == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "path is required")
		return
	}

	loc, err := ParseLocation(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "path is not a valid URL")
		return
	}

	pattern, params, _ := h.router.Match(loc.Pathname)
	response.Success(c, http.StatusOK, ResolveResponse{
		Location: loc,
		Pattern:  pattern,
		Params:   params,
	})
}

func (h *Handler) Go(c *gin.Context) {
	to := c.Query("to")
	if to == "" {
		to = "/"
	}
	if !isLocalPath(to) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be a site-relative path")
		return
	}
	if c.Query("replace") == "true" {
		NavigateReplace(c.Writer, to)
	} else {
		Navigate(c.Writer, to)
	}
	c.Abort()
}

// isLocalPath keeps /go from being used as an open redirect.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
