package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-tasks-api/internal/authz"
	"github.com/yukikurage/team-tasks-api/internal/database"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/models"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	auth      *AuthService
	orgs      *OrganizationService
	invites   *InviteService
	tasks     *TaskService
	dashboard *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(gormlogger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.Models...))

	userRepo := repository.NewUserRepository(db)
	taskService := NewTaskService(repository.NewTaskRepository(db), userRepo, nil)

	return &testEnv{
		db:        db,
		auth:      NewAuthService(userRepo),
		orgs:      NewOrganizationService(repository.NewOrganizationRepository(db), userRepo),
		invites:   NewInviteService(repository.NewInviteRepository(db), userRepo),
		tasks:     taskService,
		dashboard: NewDashboardService(taskService),
	}
}

// signIn creates (or refreshes) the user behind email and returns its principal.
func (e *testEnv) signIn(t *testing.T, email, name string) authz.Principal {
	t.Helper()
	user, err := e.auth.SignIn(context.Background(), &identity.Identity{Email: email, Name: name})
	require.NoError(t, err)
	return Principal(user)
}

// adminOf signs in a user and makes them the ADMIN of a fresh organization.
func (e *testEnv) adminOf(t *testing.T, email, domain string) (authz.Principal, *models.Organization) {
	t.Helper()
	p := e.signIn(t, email, email)
	org, err := e.orgs.CreateOrganization(context.Background(), p, CreateOrganizationInput{Name: domain, Domain: domain})
	require.NoError(t, err)
	return p, org
}

// memberOf invites email into the admin's organization and accepts it.
func (e *testEnv) memberOf(t *testing.T, admin authz.Principal, email string) authz.Principal {
	t.Helper()
	ctx := context.Background()
	invite, err := e.invites.Invite(ctx, admin, email)
	require.NoError(t, err)
	p := e.signIn(t, email, email)
	require.NoError(t, e.invites.AcceptInvite(ctx, p, invite.ID))
	return p
}

func (e *testEnv) user(t *testing.T, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.First(&u, "id = ?", id).Error)
	return &u
}
