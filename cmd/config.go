package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"recruit-matcher/internal/auth"
	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/notifier"
	"recruit-matcher/internal/scheduler"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "RECRUIT"

// AppConfig 应用配置。
type AppConfig struct {
	Server   ServerConfig         `mapstructure:"server"`
	Database DatabaseConfig       `mapstructure:"database"`
	Auth     auth.Config          `mapstructure:"auth"`
	Email    notifier.EmailConfig `mapstructure:"email"`
	Matching matching.Config      `mapstructure:"matching"`
	Digest   scheduler.Config     `mapstructure:"digest"`
	Log      LogConfig            `mapstructure:"log"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr" validate:"required"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_grace", 5*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "recruit.db")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "recruit-matcher")
	v.SetDefault("auth.admin_roles", []string{"admin", "staff"})
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", []string{})
	v.SetDefault("email.subject", "")
	v.SetDefault("matching.reject_duplicates", false)
	v.SetDefault("digest.interval", "2h")
	v.SetDefault("digest.timeout", "30s")
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readConfig 读取配置文件。path 为空时依次尝试 CONFIG_FILE 与当前目录下的 config.yaml，
// 后者缺失时仅使用默认值与环境变量。
func readConfig(v *viper.Viper, path string) (AppConfig, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return AppConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
