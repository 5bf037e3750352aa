package app

import (
	"github.com/spf13/viper"
)

// RuntimeConfig is the on-disk shape of server.toml.
type RuntimeConfig struct {
	ServerType   string `mapstructure:"server_type"`
	ServerID     string `mapstructure:"server_id"`
	Env          string `mapstructure:"env"`
	CronBasePath string `mapstructure:"cron_base_path"`
	AdminAddr    string `mapstructure:"admin_addr"`
}

// loadRuntimeConfig reads path (a TOML file) through viper, which delegates
// TOML decoding to go-toml under the hood.
func loadRuntimeConfig(path string) (RuntimeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("admin_addr", ":8090")

	var cfg RuntimeConfig
	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
