package session

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/config"
)

const CookieName = "task_session"

const (
	keyUserID = "user_id"
	keyEmail  = "email"
	keyName   = "name"
	keyImage  = "image"
)

// NewStore builds the session store selected by cfg.SessionStore.
func NewStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		s, err := redisStore.NewStore(
			10,
			"tcp",
			cfg.RedisAddr(),
			"",
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = s
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Middleware attaches the session named CookieName to every request.
func Middleware(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(CookieName, store)
}

// SavePrincipal stores p in the request's session.
func SavePrincipal(c *gin.Context, p authz.Principal) error {
	s := sessions.Default(c)
	s.Set(keyUserID, p.ID)
	s.Set(keyEmail, p.Email)
	s.Set(keyName, p.Name)
	s.Set(keyImage, p.Image)
	return s.Save()
}

// LoadPrincipal reads the principal from the request's session.
func LoadPrincipal(c *gin.Context) (authz.Principal, bool) {
	s := sessions.Default(c)
	id, ok := s.Get(keyUserID).(string)
	if !ok || id == "" {
		return authz.Principal{}, false
	}

	p := authz.Principal{ID: id}
	p.Email, _ = s.Get(keyEmail).(string)
	p.Name, _ = s.Get(keyName).(string)
	p.Image, _ = s.Get(keyImage).(string)
	return p, true
}

// Clear ends the session.
func Clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}
