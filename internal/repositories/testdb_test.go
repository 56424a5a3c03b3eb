package repositories

import (
	"path/filepath"
	"testing"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 基于临时文件的 sqlite，单连接串行化写入
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "docvault.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.FolderPermission{},
		&models.Document{},
		&models.ShareLink{},
		&models.AccessLog{},
		&models.Project{},
		&models.ProjectDocument{},
	))
	return db
}

func ptr[T any](v T) *T {
	return &v
}
