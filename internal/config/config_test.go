package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoad_AppliesDefaultsAndEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "image/png, IMAGE/JPEG ,")
	t.Setenv("API_ALLOWED_ORIGINS", "https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.API.Port)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Upload.MIMEWhitelist())
	require.Equal(t, []string{"https://admin.example.com"}, cfg.API.Origins())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "media", cfg.MinIO.Bucket)
}

func TestLoad_RequiresStorageCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "")

	_, err := Load()
	require.ErrorContains(t, err, "minio access key id is required")
}

func TestLoad_RejectsInvertedTokenTTLs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "48h")
	t.Setenv("JWT_REFRESH_TOKEN_TTL", "1h")

	_, err := Load()
	require.ErrorContains(t, err, "access token ttl must be shorter")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
