package configuration

import (
	"encoding/json"
	"os"
)

type MongoConfig struct {
	Uri                   string `json:"uri"`
	Database              string `json:"database"`
	AssessmentsCollection string `json:"assessmentsCollection"`
	AlertEventsCollection string `json:"alertEventsCollection"`
	AssignmentsCollection string `json:"assignmentsCollection"`
}

type RedisConfig struct {
	Addr          string `json:"addr"`
	Password      string `json:"password"`
	DB            int    `json:"db"`
	ChannelPrefix string `json:"channel_prefix"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type EscalationConfig struct {
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
	MaxTier              int `json:"max_tier"`
}

type Config struct {
	Server     ServerConfig     `json:"server"`
	Mongo      MongoConfig      `json:"mongo"`
	Redis      RedisConfig      `json:"redis"`
	Escalation EscalationConfig `json:"escalation"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.SocketRoute == "" {
		c.Server.SocketRoute = "ws"
	}
	if c.Escalation.SweepIntervalSeconds <= 0 {
		c.Escalation.SweepIntervalSeconds = 10
	}
	if c.Escalation.MaxTier <= 0 {
		c.Escalation.MaxTier = 5
	}
}
