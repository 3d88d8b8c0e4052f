package navigation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigate_SetsLocationVerbatim(t *testing.T) {
	w := httptest.NewRecorder()
	Navigate(w, "/discover-trips")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/discover-trips", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	NavigateReplace(w, "not a ../clean path")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "not a ../clean path", w.Header().Get("Location"))
}

func TestLink(t *testing.T) {
	got := Link(LinkProps{To: "/blog/x", Children: "Read <b>more</b>"})
	assert.Equal(t, `<a href="/blog/x">Read <b>more</b></a>`, string(got))

	got = Link(LinkProps{To: "/tour/kyoto", Children: "Kyoto", OnClick: "track('kyoto')"})
	assert.Contains(t, string(got), `href="/tour/kyoto"`)
	assert.Contains(t, string(got), `onclick="track(`)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(nil)
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterRedirect(r)
	return r
}

func TestHandler_Resolve(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/navigation/resolve?path=/blog/my-first-post%3Fa%3D1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    ResolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "/blog/:slug", body.Data.Pattern)
	assert.Equal(t, map[string]string{"slug": "my-first-post"}, body.Data.Params)
	assert.Equal(t, "?a=1", body.Data.Location.Search)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/navigation/resolve?path=/unknown/path", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var unmatched struct {
		Data ResolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unmatched))
	assert.Empty(t, unmatched.Data.Pattern)
	assert.Equal(t, map[string]string{}, unmatched.Data.Params)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/navigation/resolve", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Go(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go?to=/discover-trips", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/discover-trips", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go?to=/pro/dashboard&replace=true", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go?to=//evil.example", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
