package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/config"
)

func newRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := NewStore(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(store))
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, SavePrincipal(c, authz.Principal{ID: "u-1", Email: "alice@acme.com", Name: "Alice"}))
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", func(c *gin.Context) {
		p, ok := LoadPrincipal(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "email": p.Email, "name": p.Name})
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, Clear(c))
		c.Status(http.StatusNoContent)
	})
	return r
}

func roundTrip(t *testing.T, r *gin.Engine, afterLogin func()) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-1","email":"alice@acme.com","name":"Alice"}`, w.Body.String())

	if afterLogin != nil {
		afterLogin()
	}

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCookieStore(t *testing.T) {
	cfg := config.Default()
	cfg.SessionStore = "cookie"
	roundTrip(t, newRouter(t, cfg), nil)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.SessionStore = "redis"
	cfg.RedisHost = mr.Host()
	cfg.RedisPort = mr.Port()
	roundTrip(t, newRouter(t, cfg), func() {
		assert.NotEmpty(t, mr.Keys(), "session persisted in redis")
	})
	assert.Empty(t, mr.Keys(), "logout removes the session")
}

func TestNewStore_Unsupported(t *testing.T) {
	cfg := config.Default()
	cfg.SessionStore = "memcached"
	_, err := NewStore(cfg)
	require.Error(t, err)
}
