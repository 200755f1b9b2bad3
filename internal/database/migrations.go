package database

import (
	"fmt"

	"github.com/yukikurage/team-tasks-api/internal/logger"
	"gorm.io/gorm"
)

// compositeIndexes back the organization scoped listings; single column
// indexes are declared on the models.
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"tasks", "idx_tasks_org_created_at", "organization_id, created_at"},
	{"tasks", "idx_tasks_org_status", "organization_id, status"},
	{"users", "idx_users_org_created_at", "organization_id, created_at"},
	{"organization_invites", "idx_invites_org_accepted", "organization_id, accepted"},
	{"organization_invites", "idx_invites_email_accepted", "email, accepted"},
}

// AddIndexes adds performance-critical composite indexes to the database
func AddIndexes(db *gorm.DB) error {
	for _, idx := range compositeIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			logger.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
