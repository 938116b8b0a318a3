package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err = os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestApp"
	testPort := 9090
	testLogLevel := "debug"
	testPortalBaseURL := "https://portal.acecpas.example.com"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nPORTAL_BASE_URL=%s\n",
		testAppName, testPort, testLogLevel, testPortalBaseURL,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testPortalBaseURL, cfg.Portal.BaseURL)

	// Defaults fill in everything the file omits
	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "portal_invites", cfg.Kafka.InviteTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 7, cfg.Portal.LinkExpiryDays)
	assert.Equal(t, 90, cfg.Portal.BulkApproveThreshold)
	assert.Equal(t, int64(10*1024*1024), cfg.Portal.MaxUploadBytes)
	assert.Contains(t, cfg.Portal.AllowedContentTypes, "application/pdf")
	assert.Equal(t, "migrations/postgres", cfg.Postgres.MigrationsPath)
	assert.Equal(t, 10, cfg.WorkerPool.Size)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	require.NotNil(t, cfgWithNameAndType)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test_nofile")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("does_not_exist")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "workbench", cfg.Application.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfig_Validate_InvalidValues(t *testing.T) {
	t.Run("invalid server port", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "config_test_invalid")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)

		envFilePath := filepath.Join(tempDir, "bad_port.env")
		err = os.WriteFile(envFilePath, []byte("SERVER_PORT=-1\n"), 0644)
		require.NoError(t, err)

		originalWD, err := os.Getwd()
		require.NoError(t, err)
		defer func() {
			_ = os.Chdir(originalWD)
		}()

		err = os.Chdir(tempDir)
		require.NoError(t, err)

		_, err = LoadConfig("bad_port")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("invalid portal expiry", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "config_test_expiry")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)

		envFilePath := filepath.Join(tempDir, "bad_expiry.env")
		err = os.WriteFile(envFilePath, []byte("PORTAL_LINK_EXPIRY_DAYS=0\n"), 0644)
		require.NoError(t, err)

		originalWD, err := os.Getwd()
		require.NoError(t, err)
		defer func() {
			_ = os.Chdir(originalWD)
		}()

		err = os.Chdir(tempDir)
		require.NoError(t, err)

		_, err = LoadConfig("bad_expiry")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
