package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(testViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 10*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.App.IsDevelopment())
	assert.False(t, cfg.Twilio.Configured())
	assert.False(t, cfg.AI.Configured())
	assert.True(t, cfg.Jobs.ReviewReminders)
	assert.Equal(t, 18, cfg.Jobs.ReminderHour)
}

func TestFromViperOverrides(t *testing.T) {
	v := testViper()
	v.Set("BASE_URL", "https://shop.example.com/")
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("ENVIRONMENT", "Development")
	v.Set("REQUEST_TIMEOUT", "3s")
	v.Set("TWILIO_ACCOUNT_SID", "AC123")
	v.Set("TWILIO_AUTH_TOKEN", "token")
	v.Set("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886")
	v.Set("AI_API_KEY", "sk-test")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.App.BaseURL)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.App.RequestTimeout)
	assert.True(t, cfg.App.IsDevelopment())
	assert.True(t, cfg.Twilio.Configured())
	assert.True(t, cfg.AI.Configured())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown driver", "STORE_DRIVER", "cassandra"},
		{"zero timeout", "REQUEST_TIMEOUT", "0s"},
		{"negative timeout", "REQUEST_TIMEOUT", "-1s"},
		{"empty base url", "BASE_URL", ""},
		{"mongo without uri", "MONGO_URI", ""},
		{"reminder hour out of range", "REVIEW_REMINDER_HOUR", 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testViper()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "")
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "STORE_DRIVER=sqlite\nPORT=7070\nADMIN_API_KEY=secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("ADMIN_API_KEY")
	})

	cfg, err := Load([]string{"--env-file", path})
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "secret", cfg.App.AdminAPIKey)
	// real environment wins over the file
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestLoadMissingEnvFile(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "")

	_, err := Load([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load([]string{"--nope"})
	assert.Error(t, err)
}
