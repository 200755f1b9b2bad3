package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-tasks-api/internal/config"
	"github.com/yukikurage/team-tasks-api/internal/database"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// APITestSuite drives the full router against an in-memory database
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	store  sessions.Store
	router *gin.Engine
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

// SetupTest runs before each test
func (s *APITestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), database.GormConfig(gormlogger.Silent))
	s.Require().NoError(err)
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(database.Migrate(s.db))

	s.cfg = config.Default()
	s.cfg.SessionStore = "cookie"
	s.cfg.IdentitySecret = "test-identity-secret"
	s.cfg.IdentityIssuer = "https://id.example.com"
	s.cfg.SignInBurst = 100

	s.store = cookie.NewStore([]byte(s.cfg.SessionSecret))
	s.router = NewRouter(s.cfg, s.db, s.store, nil)
}

// TearDownTest runs after each test
func (s *APITestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *APITestSuite) idToken(email, name string, secret string) string {
	claims := identity.Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + email,
			Issuer:    s.cfg.IdentityIssuer,
			Audience:  jwt.ClaimStrings{s.cfg.IdentityAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	s.Require().NoError(err)
	return signed
}

// client keeps the session cookie of one browser.
type client struct {
	s       *APITestSuite
	cookies map[string]*http.Cookie
}

func (s *APITestSuite) anonymous() *client {
	return &client{s: s, cookies: map[string]*http.Cookie{}}
}

func (s *APITestSuite) signIn(email, name string) (*client, map[string]interface{}) {
	cl := s.anonymous()
	w := cl.do(http.MethodPost, "/api/auth/session", map[string]string{
		"id_token": s.idToken(email, name, s.cfg.IdentitySecret),
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return cl, decode(s, w)
}

func (cl *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			cl.s.Require().NoError(err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.s.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return w
}

func decode(s *APITestSuite, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *APITestSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code, w.Body.String())
	s.Equal(code, decode(s, w)["code"])
}

// foundOrg signs in an admin and creates their organization.
func (s *APITestSuite) foundOrg(email, domain string) (*client, string) {
	cl, _ := s.signIn(email, email)
	w := cl.do(http.MethodPost, "/api/organizations", map[string]string{"name": domain, "domain": domain})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return cl, decode(s, w)["id"].(string)
}

// join invites email through admin and accepts the invite as that user.
func (s *APITestSuite) join(admin *client, email string) (*client, string) {
	w := admin.do(http.MethodPost, "/api/invites", map[string]string{"email": email})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	inviteID := decode(s, w)["id"].(string)

	cl, me := s.signIn(email, email)
	w = cl.do(http.MethodPost, "/api/invites/"+inviteID+"/accept", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return cl, me["id"].(string)
}

func (s *APITestSuite) TestHealth() {
	w := s.anonymous().do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", decode(s, w)["status"])
}

func (s *APITestSuite) TestProtectedRoutesRequireSession() {
	anon := s.anonymous()
	for _, path := range []string{"/api/auth/me", "/api/tasks", "/api/organizations/members", "/api/invites", "/api/dashboard"} {
		s.assertError(anon.do(http.MethodGet, path, nil), http.StatusUnauthorized, "UNAUTHENTICATED")
	}
}

func (s *APITestSuite) TestSignIn() {
	cl, me := s.signIn("Alice@Acme.com", "Alice")
	s.Equal("alice@acme.com", me["email"])
	s.Equal("MEMBER", me["role"])
	s.Nil(me["organization_id"])

	w := cl.do(http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(me["id"], decode(s, w)["id"])

	// Signing in again refreshes the profile of the same user.
	_, again := s.signIn("alice@acme.com", "Alice Liddell")
	s.Equal(me["id"], again["id"])
	s.Equal("Alice Liddell", again["name"])

	w = cl.do(http.MethodPost, "/api/auth/logout", nil)
	s.Equal(http.StatusOK, w.Code)
	s.assertError(cl.do(http.MethodGet, "/api/auth/me", nil), http.StatusUnauthorized, "UNAUTHENTICATED")
}

func (s *APITestSuite) TestSignIn_Rejected() {
	anon := s.anonymous()

	w := anon.do(http.MethodPost, "/api/auth/session", map[string]string{
		"id_token": s.idToken("alice@acme.com", "Alice", "wrong-secret"),
	})
	s.assertError(w, http.StatusUnauthorized, "UNAUTHENTICATED")

	w = anon.do(http.MethodPost, "/api/auth/session", map[string]string{
		"id_token": s.idToken("alice@acme.com", "Alice", s.cfg.IdentitySecret),
		"password": "hunter2",
	})
	s.assertError(w, http.StatusBadRequest, "VALIDATION_ERROR")

	w = anon.do(http.MethodPost, "/api/auth/session", `{}`)
	s.assertError(w, http.StatusBadRequest, "VALIDATION_ERROR")
}

func (s *APITestSuite) TestSignIn_RateLimited() {
	s.cfg.SignInRPS = 0.001
	s.cfg.SignInBurst = 1
	s.router = NewRouter(s.cfg, s.db, s.store, nil)

	body := map[string]string{"id_token": s.idToken("alice@acme.com", "Alice", s.cfg.IdentitySecret)}
	s.Equal(http.StatusOK, s.anonymous().do(http.MethodPost, "/api/auth/session", body).Code)
	s.assertError(s.anonymous().do(http.MethodPost, "/api/auth/session", body), http.StatusTooManyRequests, "RATE_LIMITED")
}

func (s *APITestSuite) TestOnboardingFlow() {
	alice, orgID := s.foundOrg("alice@acme.com", "acme.com")

	w := alice.do(http.MethodGet, "/api/auth/me", nil)
	me := decode(s, w)
	s.Equal("ADMIN", me["role"])
	s.Equal(orgID, me["organization_id"])

	w = alice.do(http.MethodPost, "/api/invites", map[string]string{"email": "bob@acme.com"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	inviteID := decode(s, w)["id"].(string)

	w = alice.do(http.MethodGet, "/api/invites", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Len(decode(s, w)["invites"], 1)

	bob, bobMe := s.signIn("bob@acme.com", "Bob")
	bobID := bobMe["id"].(string)

	w = bob.do(http.MethodGet, "/api/invites/check", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	invite := decode(s, w)["invite"].(map[string]interface{})
	s.Equal(inviteID, invite["id"])
	s.Equal("alice@acme.com", invite["invited_by"].(map[string]interface{})["email"])

	w = bob.do(http.MethodPost, "/api/invites/"+inviteID+"/accept", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = bob.do(http.MethodGet, "/api/invites/check", nil)
	s.Nil(decode(s, w)["invite"])

	w = alice.do(http.MethodGet, "/api/organizations/members", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	members := decode(s, w)["members"].([]interface{})
	s.Len(members, 2)
	for _, m := range members {
		s.ElementsMatch([]string{"id", "name", "email", "role", "image", "created_at"}, keys(m.(map[string]interface{})))
	}

	w = alice.do(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":        "Onboard Bob",
		"priority":     "HIGH",
		"due_date":     time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"assignee_ids": []string{bobID},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	task := decode(s, w)
	taskID := task["id"].(string)
	s.Equal("TODO", task["status"])
	s.Len(task["assignments"], 1)

	w = bob.do(http.MethodGet, "/api/tasks?status=TODO&sort_by=priority&sort_order=desc", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	list := decode(s, w)
	s.Equal(float64(1), list["total"])

	w = bob.do(http.MethodGet, "/api/dashboard", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	dashboard := decode(s, w)
	s.Equal(float64(1), dashboard["overdue_tasks"])
	s.Equal(float64(0), dashboard["completion_rate"])

	w = bob.do(http.MethodPatch, "/api/tasks/"+taskID+"/status", map[string]string{"status": "DONE"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("DONE", decode(s, w)["status"])

	w = bob.do(http.MethodGet, "/api/dashboard", nil)
	dashboard = decode(s, w)
	s.Equal(float64(1), dashboard["total_tasks"])
	s.Equal(float64(100), dashboard["completion_rate"])
	s.Equal(float64(0), dashboard["overdue_tasks"])
	s.Equal(float64(1), dashboard["tasks_by_status"].(map[string]interface{})["DONE"])
	s.Equal(float64(0), dashboard["tasks_by_status"].(map[string]interface{})["BLOCKED"])
	s.Len(dashboard["recent_tasks"], 1)

	w = alice.do(http.MethodPut, "/api/tasks/"+taskID, map[string]interface{}{
		"title":       "Onboard Bob properly",
		"description": "accounts and laptop",
		"status":      "IN_PROGRESS",
		"priority":    "URGENT",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode(s, w)
	s.Equal("Onboard Bob properly", updated["title"])
	s.Equal("URGENT", updated["priority"])
	s.Nil(updated["due_date"])

	w = alice.do(http.MethodDelete, "/api/tasks/"+taskID+"/assignments/"+bobID, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = alice.do(http.MethodPost, "/api/tasks/"+taskID+"/assignments", map[string]string{"assignee_id": bobID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(bobID, decode(s, w)["assignee"].(map[string]interface{})["id"])
}

func (s *APITestSuite) TestOrganizationErrors() {
	alice, _ := s.foundOrg("alice@acme.com", "acme.com")

	s.assertError(alice.do(http.MethodPost, "/api/organizations", map[string]string{"name": "Again", "domain": "again.com"}),
		http.StatusConflict, "ALREADY_IN_ORGANIZATION")

	carol, _ := s.signIn("carol@other.com", "Carol")
	s.assertError(carol.do(http.MethodPost, "/api/organizations", map[string]string{"name": "Acme", "domain": "ACME.com"}),
		http.StatusConflict, "DOMAIN_TAKEN")
	s.assertError(carol.do(http.MethodPost, "/api/organizations", map[string]string{"name": "Acme"}),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(carol.do(http.MethodGet, "/api/organizations/members", nil),
		http.StatusForbidden, "NOT_IN_ORGANIZATION")
	s.assertError(carol.do(http.MethodGet, "/api/tasks", nil),
		http.StatusForbidden, "NOT_IN_ORGANIZATION")
}

func (s *APITestSuite) TestInviteErrors() {
	alice, _ := s.foundOrg("alice@acme.com", "acme.com")
	bob, _ := s.join(alice, "bob@acme.com")

	s.assertError(bob.do(http.MethodPost, "/api/invites", map[string]string{"email": "carol@acme.com"}),
		http.StatusForbidden, "FORBIDDEN")
	s.assertError(bob.do(http.MethodGet, "/api/invites", nil),
		http.StatusForbidden, "FORBIDDEN")
	s.assertError(alice.do(http.MethodPost, "/api/invites", map[string]string{"email": "bob@acme.com"}),
		http.StatusConflict, "USER_EXISTS")
	s.assertError(alice.do(http.MethodPost, "/api/invites", map[string]string{"email": "nope"}),
		http.StatusBadRequest, "VALIDATION_ERROR")

	w := alice.do(http.MethodPost, "/api/invites", map[string]string{"email": "dave@acme.com"})
	s.Require().Equal(http.StatusCreated, w.Code)
	inviteID := decode(s, w)["id"].(string)
	s.assertError(alice.do(http.MethodPost, "/api/invites", map[string]string{"email": "Dave@acme.com"}),
		http.StatusConflict, "DUPLICATE_INVITE")

	eve, _ := s.signIn("eve@acme.com", "Eve")
	s.assertError(eve.do(http.MethodPost, "/api/invites/"+inviteID+"/accept", nil),
		http.StatusForbidden, "EMAIL_MISMATCH")
	s.assertError(eve.do(http.MethodGet, "/api/invites/check?email=dave@acme.com", nil),
		http.StatusForbidden, "FORBIDDEN")
	s.assertError(eve.do(http.MethodPost, "/api/invites/missing/accept", nil),
		http.StatusNotFound, "NOT_FOUND")

	dave, _ := s.signIn("dave@acme.com", "Dave")
	s.Equal(http.StatusOK, dave.do(http.MethodPost, "/api/invites/"+inviteID+"/accept", nil).Code)
	s.assertError(dave.do(http.MethodPost, "/api/invites/"+inviteID+"/accept", nil),
		http.StatusConflict, "ALREADY_ACCEPTED")
}

func (s *APITestSuite) TestTaskErrors() {
	alice, _ := s.foundOrg("alice@acme.com", "acme.com")
	_, bobID := s.join(alice, "bob@acme.com")
	zed, _ := s.foundOrg("zed@globex.com", "globex.com")

	w := alice.do(http.MethodPost, "/api/tasks", map[string]interface{}{"title": "Secret plan"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	task := decode(s, w)
	taskID := task["id"].(string)
	s.Equal("MEDIUM", task["priority"])

	s.assertError(zed.do(http.MethodGet, "/api/tasks/"+taskID, nil), http.StatusForbidden, "FORBIDDEN")
	s.assertError(zed.do(http.MethodPatch, "/api/tasks/"+taskID+"/status", map[string]string{"status": "DONE"}),
		http.StatusForbidden, "FORBIDDEN")
	s.assertError(zed.do(http.MethodGet, "/api/tasks/does-not-exist", nil), http.StatusNotFound, "NOT_FOUND")

	w = zed.do(http.MethodGet, "/api/tasks", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), decode(s, w)["total"])

	s.assertError(alice.do(http.MethodPost, "/api/tasks", map[string]interface{}{"title": ""}),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(alice.do(http.MethodPost, "/api/tasks", map[string]interface{}{"title": "x", "priority": "SOMEDAY"}),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(alice.do(http.MethodPost, "/api/tasks", map[string]interface{}{"title": "x", "organization_id": "other"}),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(alice.do(http.MethodGet, "/api/tasks?organization_id=other", nil),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(alice.do(http.MethodGet, "/api/tasks?sort_by=title", nil),
		http.StatusBadRequest, "VALIDATION_ERROR")
	s.assertError(alice.do(http.MethodGet, "/api/tasks?page=two", nil),
		http.StatusBadRequest, "VALIDATION_ERROR")

	s.Equal(http.StatusCreated, alice.do(http.MethodPost, "/api/tasks/"+taskID+"/assignments", map[string]string{"assignee_id": bobID}).Code)
	s.assertError(alice.do(http.MethodPost, "/api/tasks/"+taskID+"/assignments", map[string]string{"assignee_id": bobID}),
		http.StatusConflict, "DUPLICATE_ASSIGNMENT")
	s.Equal(http.StatusNoContent, alice.do(http.MethodDelete, "/api/tasks/"+taskID+"/assignments/"+bobID, nil).Code)
	s.assertError(alice.do(http.MethodDelete, "/api/tasks/"+taskID+"/assignments/"+bobID, nil),
		http.StatusNotFound, "NOT_FOUND")

	s.assertError(alice.do(http.MethodPost, "/api/tasks/generate", map[string]string{"text": "plan the offsite"}),
		http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}

func (s *APITestSuite) TestListTasks_Pagination() {
	alice, _ := s.foundOrg("alice@acme.com", "acme.com")
	for _, title := range []string{"one", "two", "three"} {
		s.Require().Equal(http.StatusCreated, alice.do(http.MethodPost, "/api/tasks", map[string]string{"title": title}).Code)
	}

	w := alice.do(http.MethodGet, "/api/tasks?page=2&page_size=2", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(s, w)
	s.Equal(float64(3), body["total"])
	s.Len(body["tasks"], 1)

	s.assertError(alice.do(http.MethodGet, "/api/tasks?page_size=500", nil), http.StatusBadRequest, "VALIDATION_ERROR")
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
