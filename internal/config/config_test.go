package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendSQLite, cfg.DBBackend)
	assert.Equal(t, InsightEdge, cfg.InsightProvider)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.True(t, cfg.Local())
}

func TestLoadEnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("GROWPOINT_DB_BACKEND", "Postgres")
	t.Setenv("GROWPOINT_DB_DSN", "postgres://localhost/growpoint")
	t.Setenv("GROWPOINT_EDGE_TIMEOUT", "5s")
	t.Setenv("GROWPOINT_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.DBBackend)
	assert.Equal(t, 5*time.Second, cfg.EdgeTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db-backend: memory\ninsight-provider: openai\nopenai-model: llama3\ncors-origins:\n  - https://hr.example\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.DBBackend)
	assert.Equal(t, InsightOpenAI, cfg.InsightProvider)
	assert.Equal(t, "llama3", cfg.OpenAIModel)
	assert.Equal(t, []string{"https://hr.example"}, cfg.CORSOrigins)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "from-env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db-backend: mongo\ndb-dsn: mongodb://localhost:27017\n"), 0o600))
	t.Setenv("GROWPOINT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, cfg.DBBackend)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	inTempDir(t)
	t.Setenv("GROWPOINT_DB_BACKEND", "cassandra")

	_, err := Load("")
	assert.ErrorContains(t, err, "unsupported db-backend")
}

func TestLoadRequiresSecretOutsideLocal(t *testing.T) {
	inTempDir(t)
	t.Setenv("GROWPOINT_ENV", "production")

	_, err := Load("")
	assert.ErrorContains(t, err, "jwt-secret")
}
