package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string `mapstructure:"mode"`
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`
	StaticPath  string `mapstructure:"static_path"`
	Secret      string `mapstructure:"secret"`

	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	HTTPRateLimit  int           `mapstructure:"http_rate_limit"`
	HTTPRateWindow time.Duration `mapstructure:"http_rate_window"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	WSRate     float64       `mapstructure:"ws_rate"`
	WSBurst    int           `mapstructure:"ws_burst"`

	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	RoomCodeLength int           `mapstructure:"room_code_length"`
	Backpressure   string        `mapstructure:"backpressure"`
	QuestionsPath  string        `mapstructure:"questions_path"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then SPARK_* environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v, env)

	v.SetEnvPrefix("SPARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "SPARK_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}
	if err := v.BindEnv("allowed_origins", "SPARK_ALLOWED_ORIGINS", "CLIENT_URL"); err != nil {
		return nil, fmt.Errorf("bind origins env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("env", cfg.Environment).Strs("origins", cfg.AllowedOrigins).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("mode", "release")
	v.SetDefault("environment", env)
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "change-me")

	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("http_rate_limit", 100)
	v.SetDefault("http_rate_window", "15m")

	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("ws_rate", 10)
	v.SetDefault("ws_burst", 20)

	v.SetDefault("session_ttl", "24h")
	v.SetDefault("sweep_interval", "1h")
	v.SetDefault("room_code_length", 6)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("questions_path", "")
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0:
		return fmt.Errorf("config: port must be positive, got %d", c.Port)
	case c.PingPeriod >= c.PongWait:
		return fmt.Errorf("config: ping_period %s must be shorter than pong_wait %s", c.PingPeriod, c.PongWait)
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: session_ttl must be positive")
	case c.RoomCodeLength < 4:
		return fmt.Errorf("config: room_code_length must be at least 4, got %d", c.RoomCodeLength)
	case c.SendBuffer <= 0:
		return fmt.Errorf("config: send_buffer must be positive")
	case c.HTTPRateLimit <= 0 || c.HTTPRateWindow <= 0:
		return fmt.Errorf("config: http rate limit needs a positive limit and window")
	}
	return nil
}
