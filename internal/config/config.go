package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App  AppConfig  `mapstructure:"app"`
	DB   DBConfig   `mapstructure:"db"`
	Log  LogConfig  `mapstructure:"log"`
	Data DataConfig `mapstructure:"data"`
	Seed SeedConfig `mapstructure:"seed"`
}

type AppConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	SessionSecret string `mapstructure:"session_secret"`
}

func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type DataConfig struct {
	Workbook        string `mapstructure:"workbook"`
	GuideFile       string `mapstructure:"guide_file"`
	TipsFile        string `mapstructure:"tips_file"`
	ImportBatchSize int    `mapstructure:"import_batch_size"`
}

type SeedConfig struct {
	AdminPassword string `mapstructure:"admin_password"`
	UserPassword  string `mapstructure:"user_password"`
}

var defaults = map[string]any{
	"app.host":           "0.0.0.0",
	"app.port":           5000,
	"app.mode":           "release",
	"app.session_secret": "",

	"db.host":              "localhost",
	"db.port":              5432,
	"db.user":              "postgres",
	"db.password":          "postgres",
	"db.name":              "gaokao",
	"db.sslmode":           "disable",
	"db.max_open_conns":    25,
	"db.max_idle_conns":    25,
	"db.conn_max_lifetime": 5 * time.Minute,

	"log.level":       "info",
	"log.filename":    "",
	"log.max_size":    100,
	"log.max_backups": 5,
	"log.max_age":     30,
	"log.compress":    false,

	"data.workbook":          "福建2025年专家版大数据.xlsx",
	"data.guide_file":        "填报指南.txt",
	"data.tips_file":         "志愿技巧.txt",
	"data.import_batch_size": 100,

	"seed.admin_password": "123456",
	"seed.user_password":  "123456",
}

// Load читает .env (если есть), затем переменные окружения и необязательный yaml.
// Ключ db.host можно задать как DB_HOST, app.port как APP_PORT и т.д.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT оставлен для совместимости с хостингами
	if port := v.GetInt("PORT"); port != 0 {
		v.Set("app.port", port)
	}

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Data.ImportBatchSize <= 0 {
		cfg.Data.ImportBatchSize = 100
	}
	return cfg, nil
}
