// Package config loads settings from the environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBDriver string
	DBDSN    string

	SlackToken   string
	SlackChannel string

	Addr       string
	SchemaPath string

	FetchTimeout time.Duration

	// EnableMenuDeletion applies computed deletion candidates. Off by
	// default: a temporary suppression of destructive writes while the
	// source sites are in flux.
	EnableMenuDeletion bool
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SIKSHA_DB_DRIVER", "mysql")
	v.SetDefault("SIKSHA_DB_DSN", "root:waffle@tcp(127.0.0.1:3306)/siksha?charset=utf8mb4&multiStatements=true")
	v.SetDefault("SIKSHA_ADDR", ":8080")
	v.SetDefault("SIKSHA_SCHEMA_PATH", "internal/store/schema.sql")
	v.SetDefault("SIKSHA_FETCH_TIMEOUT", "15s")
	v.SetDefault("SIKSHA_ENABLE_MENU_DELETION", false)

	return Config{
		DBDriver:           v.GetString("SIKSHA_DB_DRIVER"),
		DBDSN:              v.GetString("SIKSHA_DB_DSN"),
		SlackToken:         v.GetString("SLACK_TOKEN"),
		SlackChannel:       v.GetString("SLACK_CHANNEL"),
		Addr:               v.GetString("SIKSHA_ADDR"),
		SchemaPath:         v.GetString("SIKSHA_SCHEMA_PATH"),
		FetchTimeout:       v.GetDuration("SIKSHA_FETCH_TIMEOUT"),
		EnableMenuDeletion: v.GetBool("SIKSHA_ENABLE_MENU_DELETION"),
	}
}
