package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения. Загружается один раз при старте
// и дальше передаётся в компоненты как неизменяемое значение.
type Config struct {
	Port string `mapstructure:"PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisHost string `mapstructure:"REDIS_HOST"`
	RedisPort string `mapstructure:"REDIS_PORT"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	PaddleVendorID string `mapstructure:"PADDLE_VENDOR_ID"`

	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Лимиты и константы наград
	FreeGoalLimit int `mapstructure:"FREE_GOAL_LIMIT"`
	PointsPerGoal int `mapstructure:"POINTS_PER_GOAL"`
}

func Load() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "1234")
	viper.SetDefault("DB_NAME", "momentum_db")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_SECRET", "supersecretkey")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("FREE_GOAL_LIMIT", 5)
	viper.SetDefault("POINTS_PER_GOAL", 50)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
