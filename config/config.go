package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a .env file and config.yaml.
// Environment variables override settings of the same name from the file.
func LoadConfig() {
	// Load environment variables from .env; a missing file is fine.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, skipping")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("bot.database", "data/rustbot.db")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Running purely off environment variables is supported.
			logrus.Info("no config.yaml found, using environment variables and defaults")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}
