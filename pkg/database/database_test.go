package database

import (
	"testing"

	"card-service/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormConfigEnablesErrorTranslation(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.LogLevel = gormlogger.Warn

	require.True(t, gormConfig(cfg).TranslateError)
}

func TestUniqueViolationTranslatesToDuplicatedKey(t *testing.T) {
	// A concurrent card creation with the same derived slug surfaces as
	// SQLSTATE 23505; the dialector must map it to the sentinel the insert
	// retry matches on
	translated := postgres.Dialector{}.Translate(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, translated, gorm.ErrDuplicatedKey)

	// Untranslated driver errors do not match
	require.NotErrorIs(t, &pgconn.PgError{Code: "23505"}, gorm.ErrDuplicatedKey)
}
