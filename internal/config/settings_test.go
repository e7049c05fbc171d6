package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://portal.example.com, ,http://localhost:5173")

	s := Load()
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, "fleet/drivers/+/location", s.MQTTTopic)
	assert.Equal(t, []string{"https://portal.example.com", "http://localhost:5173"}, s.CORSOrigins)
}

func TestDSN(t *testing.T) {
	s := Settings{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "require", DBTimezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=require TimeZone=UTC", s.DSN())
}

func TestLoad_StoreAndFlags(t *testing.T) {
	t.Setenv("STORE", "Memory")
	t.Setenv("ALLOW_ADMIN_SIGNUP", "true")

	s := Load()
	assert.Equal(t, "memory", s.Store)
	assert.True(t, s.AllowAdminSignup)

	t.Setenv("ALLOW_ADMIN_SIGNUP", "sometimes")
	assert.False(t, Load().AllowAdminSignup)
}
