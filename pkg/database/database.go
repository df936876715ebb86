package database

import (
	"context"
	"fmt"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the pool, installs the zap query logger and, when queryDuration
// is non-nil, the timing and tracing callbacks.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger, queryDuration *prometheus.HistogramVec) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   NewGormLogger(log, cfg.SlowQueryThreshold),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if queryDuration != nil {
		if err := db.Use(NewInstrumentation(queryDuration)); err != nil {
			return nil, fmt.Errorf("installing query instrumentation: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Ping reports whether the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"auth", "clinical", "insurance", "audit"}
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.Identity{},
		&domain.AuditLog{},
		&profile.Profile{},
		&illness.Illness{},
		&message.Message{},
		&document.Document{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createConstraints(db); err != nil {
		return fmt.Errorf("creating constraints: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

type foreignKey struct {
	name   string
	table  string
	column string
	ref    string
	action string
}

var foreignKeys = []foreignKey{
	{"fk_profiles_identity", "clinical.profiles", "identity_id", "auth.identities(id)", "CASCADE"},
	{"fk_profiles_assigned_physician", "clinical.profiles", "assigned_physician_id", "clinical.profiles(identity_id)", "RESTRICT"},
	{"fk_illnesses_author", "clinical.illnesses", "author_id", "auth.identities(id)", "CASCADE"},
	{"fk_illnesses_physician", "clinical.illnesses", "attending_physician_id", "clinical.profiles(identity_id)", "SET NULL"},
	{"fk_chat_author", "clinical.chat_messages", "author_id", "auth.identities(id)", "CASCADE"},
	{"fk_chat_patient", "clinical.chat_messages", "patient_id", "clinical.profiles(identity_id)", "CASCADE"},
	{"fk_chat_physician", "clinical.chat_messages", "physician_id", "clinical.profiles(identity_id)", "CASCADE"},
	{"fk_documents_owner", "insurance.documents", "owner_id", "auth.identities(id)", "CASCADE"},
}

type checkConstraint struct {
	name  string
	table string
	expr  string
}

var checkConstraints = []checkConstraint{
	{"chk_profiles_patient_has_physician", "clinical.profiles", "kind <> 'patient' OR assigned_physician_id IS NOT NULL"},
	{"chk_profiles_kind", "clinical.profiles", "kind IN ('patient', 'physician')"},
}

// createConstraints adds the cross-table foreign keys and row checks.
// AutoMigrate only knows about constraints declared through association
// fields, which these rows do not carry.
func createConstraints(db *gorm.DB) error {
	for _, ck := range checkConstraints {
		stmt := fmt.Sprintf(`DO $$ BEGIN
	ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`, ck.table, ck.name, ck.expr)

		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", ck.name, err)
		}
	}

	for _, fk := range foreignKeys {
		stmt := fmt.Sprintf(`DO $$ BEGIN
	ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s ON DELETE %s;
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`, fk.table, fk.name, fk.column, fk.ref, fk.action)

		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", fk.name, err)
		}
	}
	return nil
}

// createIndexes builds the query indexes. A failed lookup index only costs
// speed and is logged; a failed unique index would drop an integrity rule and
// aborts the migration.
func createIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name     string
		query    string
		required bool
	}{
		{
			name:     "idx_identities_username_lower",
			query:    `CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_username_lower ON auth.identities (lower(username))`,
			required: true,
		},
		{
			name:  "idx_profiles_physician_patients",
			query: `CREATE INDEX IF NOT EXISTS idx_profiles_physician_patients ON clinical.profiles (assigned_physician_id) WHERE kind = 'patient'`,
		},
		{
			name:  "idx_illnesses_author_created",
			query: `CREATE INDEX IF NOT EXISTS idx_illnesses_author_created ON clinical.illnesses (author_id, created_at DESC)`,
		},
		{
			name:  "idx_chat_pair_created",
			query: `CREATE INDEX IF NOT EXISTS idx_chat_pair_created ON clinical.chat_messages (patient_id, physician_id, created_at, id)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			if idx.required {
				return fmt.Errorf("%s: %w", idx.name, err)
			}
			log.Warn("index creation failed", zap.String("index", idx.name), zap.Error(err))
		}
	}
	return nil
}
