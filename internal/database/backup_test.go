package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deskbook/internal/config"
	"deskbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "reservations.db")

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.InsertReservation(context.Background(), &models.Reservation{
		Desk: 1, Date: "2026-09-01", StartTime: "09:00", EndTime: "10:00",
		ReservedBy: "Kim Minji", StudentID: "20240001",
	}))

	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "backup_")

	// The backup is a readable database with the data in it
	restored, err := NewDB(filepath.Join(backupDir, files[0].Name()), &logger)
	require.NoError(t, err)
	defer restored.Close()

	all, err := restored.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCleanupOldBackups(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(oldFile, []byte("stale"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(dir, "backup_fresh.db")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		StoragePath:   dir,
		RetentionDays: 14,
	}, &logger)

	svc.CleanupOldBackups()

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}
