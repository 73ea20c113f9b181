package gateway

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>world</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "site.css"), []byte("body{}"), 0o644))

	router := NewRouter(NewHandler(&MockEvolver{}), NewEvolveSocket(&MockEvolver{}), dir)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		contains string
		absent   string
	}{
		{name: "index", method: http.MethodGet, path: "/", status: http.StatusOK, contains: "<h1>world</h1>"},
		{name: "asset", method: http.MethodGet, path: "/app.js", status: http.StatusOK, contains: "console.log(1)"},
		{name: "missing_asset", method: http.MethodGet, path: "/missing.css", status: http.StatusNotFound},
		{name: "nested_asset", method: http.MethodGet, path: "/assets/site.css", status: http.StatusOK, contains: "body{}"},
		{name: "no_directory_listing", method: http.MethodGet, path: "/assets/", status: http.StatusNotFound, absent: "site.css"},
		{name: "no_directory_redirect", method: http.MethodGet, path: "/assets", status: http.StatusNotFound, absent: "site.css"},
		{name: "post_unknown", method: http.MethodPost, path: "/app.js", status: http.StatusNotFound, contains: "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
			if tt.absent != "" {
				assert.NotContains(t, w.Body.String(), tt.absent)
			}
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestStaticFiles_MissingDir(t *testing.T) {
	assert.Nil(t, StaticFiles(filepath.Join(t.TempDir(), "absent")))
	assert.Nil(t, StaticFiles(""))
}

func TestCORS_PassesThroughNonPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
}
