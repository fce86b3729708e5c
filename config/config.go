package config

import (
	"log"

	"github.com/spf13/viper"
)

// minSecretLength is the minimum accepted size of the JWT signing secret.
// Anything shorter is trivially brute-forceable for HS256.
const minSecretLength = 32

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port          string `mapstructure:"port"`
		SecureCookies bool   `mapstructure:"secure_cookies"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if len(AppConfig.JWT.SecretKey) < minSecretLength {
		log.Fatalf("jwt.secret_key must be at least %d characters", minSecretLength)
	}
}
