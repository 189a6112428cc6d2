package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"sudonet/internal/config"
	"sudonet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		sslMode string
		want    string
	}{
		{"url without sslmode", "postgres://u:p@localhost:5432/sudonet", "disable", "postgres://u:p@localhost:5432/sudonet?sslmode=disable"},
		{"url keeps explicit sslmode", "postgres://u:p@localhost:5432/sudonet?sslmode=require", "disable", "postgres://u:p@localhost:5432/sudonet?sslmode=require"},
		{"key value form", "host=localhost dbname=sudonet", "require", "host=localhost dbname=sudonet sslmode=require"},
		{"empty mode", "postgres://localhost/sudonet", "", "postgres://localhost/sudonet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDSN(tt.url, tt.sslMode))
		})
	}
}

func TestConnect_NotConfigured(t *testing.T) {
	db, err := Connect(&config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, db)
}

func TestBackend(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	full := &config.Config{DatabaseURL: "postgres://db/sudonet", StoragePublicURL: "http://cdn.local"}
	assert.Same(t, db, Backend(full, db))
	assert.Nil(t, Backend(full, nil))

	noStorage := &config.Config{DatabaseURL: "postgres://db/sudonet"}
	assert.Nil(t, Backend(noStorage, db))
}

func TestMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"users", "userinfo", "posts", "comments", "street_creds"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.StreetCred{}, "idx_street_creds_post_requester"))
}

func TestCustomGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger()
	silent := l.LogMode(logger.Silent).(*CustomGormLogger)
	assert.Equal(t, logger.Silent, silent.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel, "original must be unchanged")

	// Silent mode must not invoke the SQL callback.
	called := false
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "", 0
	}, errors.New("ignored"))
	assert.False(t, called)
}
