package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // file | postgres | gorm
	DataDir  string         `mapstructure:"data_dir"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type AuthConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	HashSalt string        `mapstructure:"hash_salt"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":3000")
	viper.SetDefault("server.rpc_address", "")
	viper.SetDefault("server.metrics_address", "")
	viper.SetDefault("server.tick_interval", 50*time.Millisecond)
	viper.SetDefault("server.max_message_size", 32*1024)
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.data_dir", "gameData")
	viper.SetDefault("auth.token_ttl", 24*time.Hour)
	viper.SetDefault("auth.hash_salt", "default_salt")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
