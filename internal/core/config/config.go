package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name        string
	Env         string
	HTTP        HTTP
	Admin       AdminHTTP
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	CookieName        string `mapstructure:"cookie_name"`
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	ListTTLSec int    `mapstructure:"list_ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Seed 管理端启动时若无管理员则创建
type Seed struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	Seed  Seed  `mapstructure:"seed"`
}

// Default 本地开发 / 测试用默认值（sqlite 文件库，无 redis）
func Default() *Config {
	return &Config{
		App: App{
			Name:  "Igreja Central VCP",
			Env:   "local",
			HTTP:  HTTP{Host: "0.0.0.0", Port: 8080, ReadTimeoutSec: 5, WriteTimeoutSec: 10, IdleTimeoutSec: 60},
			Admin: AdminHTTP{Host: "0.0.0.0", Port: 8081},
		},
		Log: Log{Level: "info"},
		JWT: JWT{Secret: "change-me", Issuer: "church-manager", AccessTokenTTLMin: 720, CookieName: "session"},
		DB: DB{
			Driver: "sqlite", DSN: "church.db",
			MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetimeMin: 30,
			AutoMigrate: true, LogLevel: "warn",
		},
		Redis: Redis{ListTTLSec: 60},
	}
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	c := Default()
	if err := v.Unmarshal(c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = "session"
	}
	return c
}
