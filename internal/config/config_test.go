package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "location.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "LocationData", cfg.Storage.RawDir)
	assert.Equal(t, 12, cfg.Report.Zoom)
	assert.Equal(t, "Daegu Maps", cfg.Mail.Subject)
	assert.Equal(t, "weedwatch", cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)

	require.NoError(t, cfg.ValidateServer())
	require.NoError(t, cfg.ValidateReport())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WEEDWATCH_PRIMARY__ENV", "production")
	t.Setenv("WEEDWATCH_SERVER__PORT", "8081")
	t.Setenv("WEEDWATCH_SERVER__READ_TIMEOUT", "5s")
	t.Setenv("WEEDWATCH_DATABASE__PATH", "/var/lib/weedwatch/location.db")
	t.Setenv("WEEDWATCH_STORAGE__RAW_DIR", "/var/lib/weedwatch/raw")
	t.Setenv("WEEDWATCH_REPORT__ZOOM", "10")
	t.Setenv("WEEDWATCH_MAIL__USERNAME", "reports@example.com")
	t.Setenv("WEEDWATCH_MAIL__TO", "ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/weedwatch/location.db", cfg.Database.Path)
	assert.Equal(t, "/var/lib/weedwatch/raw", cfg.Storage.RawDir)
	assert.Equal(t, 10, cfg.Report.Zoom)
	assert.Equal(t, "reports@example.com", cfg.Mail.From, "sender falls back to the relay account")
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.True(t, cfg.Observability.IsProduction())

	require.NoError(t, cfg.ValidateMail())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("WEEDWATCH_SERVER__PORT"))
	assert.Equal(t, "mail.password_file", envKey("WEEDWATCH_MAIL__PASSWORD_FILE"))
	assert.Equal(t, "storage.s3.secret_key", envKey("WEEDWATCH_STORAGE__S3__SECRET_KEY"))
}

func TestValidateServerRejectsIncompleteStorage(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "s3"
	assert.Error(t, cfg.ValidateServer())

	cfg.Storage.S3 = &S3Config{Endpoint: "https://o3.example.com", Bucket: "raw", AccessKey: "key"}
	assert.NoError(t, cfg.ValidateServer())

	cfg.Storage.S3.Bucket = ""
	assert.Error(t, cfg.ValidateServer())
}

func TestValidateServerRejectsPostgresWithoutURL(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.ValidateServer())

	cfg.Database.URL = "postgres://weedwatch@localhost:5432/weedwatch"
	assert.NoError(t, cfg.ValidateServer())
}

func TestValidateReport(t *testing.T) {
	cfg := Default()
	cfg.Report.Format = "png"
	assert.Error(t, cfg.ValidateReport())

	cfg = Default()
	cfg.Report.MaxDelay = time.Second
	assert.Error(t, cfg.ValidateReport(), "max delay below base delay")

	cfg = Default()
	cfg.Observability.Logging.Level = "loud"
	assert.Error(t, cfg.ValidateReport())
}

func TestValidateMailNeedsRecipient(t *testing.T) {
	cfg := Default()
	cfg.Mail.Username = "reports@example.com"
	cfg.Mail.From = "reports@example.com"
	assert.Error(t, cfg.ValidateMail())

	cfg.Mail.To = "ops@example.com"
	assert.NoError(t, cfg.ValidateMail())
}

func TestSMTPPassword(t *testing.T) {
	_, err := MailConfig{}.SMTPPassword()
	assert.ErrorIs(t, err, ErrMissingSecret)

	pw, err := MailConfig{Password: "inline"}.SMTPPassword()
	require.NoError(t, err)
	assert.Equal(t, "inline", pw)

	path := filepath.Join(t.TempDir(), "smtp_password")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	pw, err = MailConfig{PasswordFile: path}.SMTPPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-file", pw)

	_, err = MailConfig{PasswordFile: filepath.Join(t.TempDir(), "missing")}.SMTPPassword()
	assert.Error(t, err)
}
