package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: Igreja Teste
  env: prod
  http:
    port: 9090
  cors_origins: ["https://igreja.example"]
jwt:
  secret: from-file
  issuer: church-manager
db:
  driver: postgres
  dsn: postgres://u:p@localhost/church
redis:
  addr: localhost:6379
  list_ttl_sec: 30
seed:
  admin_email: admin@igreja.example
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadMergesOverDefaults(t *testing.T) {
	c := Load(writeConfig(t, sample))

	assert.Equal(t, "Igreja Teste", c.App.Name)
	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, []string{"https://igreja.example"}, c.App.CORSOrigins)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, 30, c.Redis.ListTTLSec)
	assert.Equal(t, "admin@igreja.example", c.Seed.AdminEmail)

	// 文件没写的保留默认
	assert.Equal(t, 8081, c.App.Admin.Port)
	assert.Equal(t, "session", c.JWT.CookieName)
	assert.Equal(t, 720, c.JWT.AccessTokenTTLMin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "from-env")
	c := Load(writeConfig(t, sample))
	assert.Equal(t, "from-env", c.JWT.Secret)
}

func TestDefaultIsLocalSqlite(t *testing.T) {
	c := Default()
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.True(t, c.DB.AutoMigrate)
	assert.Empty(t, c.Redis.Addr)
	assert.Equal(t, "local", c.App.Env)
}
