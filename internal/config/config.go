package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	HealthInterval  time.Duration
}

type GeneratorConfig struct {
	Interval        time.Duration
	StoreIDs        []int
	MaxIn           int
	ZeroProbability float64
}

type QueryConfig struct {
	Timezone       *time.Location
	MaxRecentLimit int
}

type MirrorConfig struct {
	RedisURL        string
	RedisChannel    string
	MQTTURL         string
	MQTTTopicPrefix string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Generator   GeneratorConfig
	Query       QueryConfig
	Mirror      MirrorConfig
}

// DashboardConfig configures the terminal dashboard client.
type DashboardConfig struct {
	Environment        string
	LogLevel           string
	APIURL             string
	SocketURL          string
	GracePeriod        time.Duration
	SimulationInterval time.Duration
	HourlyPollInterval time.Duration
	RenderInterval     time.Duration
	SimulationStoreID  int
	SimulationMaxIn    int
	SimulationZeroProb float64
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()
	return v
}

func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("STORAGE_HEALTH_INTERVAL", 5*time.Second)
	v.SetDefault("GENERATOR_INTERVAL", 10*time.Second)
	v.SetDefault("GENERATOR_STORES", "10")
	v.SetDefault("GENERATOR_MAX_IN", 3)
	v.SetDefault("GENERATOR_ZERO_PROBABILITY", 0.6)
	v.SetDefault("REPORT_TIMEZONE", "UTC")
	v.SetDefault("RECENT_MAX_LIMIT", 100)
	v.SetDefault("REDIS_CHANNEL", "store-traffic:live")
	v.SetDefault("MQTT_TOPIC_PREFIX", "store-traffic/events")

	storeIDs, err := parseStoreIDs(v.GetString("GENERATOR_STORES"))
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(v.GetString("REPORT_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			HealthInterval:  v.GetDuration("STORAGE_HEALTH_INTERVAL"),
		},
		Generator: GeneratorConfig{
			Interval:        v.GetDuration("GENERATOR_INTERVAL"),
			StoreIDs:        storeIDs,
			MaxIn:           v.GetInt("GENERATOR_MAX_IN"),
			ZeroProbability: v.GetFloat64("GENERATOR_ZERO_PROBABILITY"),
		},
		Query: QueryConfig{
			Timezone:       location,
			MaxRecentLimit: v.GetInt("RECENT_MAX_LIMIT"),
		},
		Mirror: MirrorConfig{
			RedisURL:        v.GetString("REDIS_URL"),
			RedisChannel:    v.GetString("REDIS_CHANNEL"),
			MQTTURL:         v.GetString("MQTT_URL"),
			MQTTTopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if cfg.DB.HealthInterval <= 0 {
		return fmt.Errorf("STORAGE_HEALTH_INTERVAL must be positive")
	}
	if cfg.Generator.Interval <= 0 {
		return fmt.Errorf("GENERATOR_INTERVAL must be positive")
	}
	if len(cfg.Generator.StoreIDs) == 0 {
		return fmt.Errorf("GENERATOR_STORES is required")
	}
	if cfg.Generator.MaxIn < 1 {
		return fmt.Errorf("GENERATOR_MAX_IN must be at least 1")
	}
	if cfg.Generator.ZeroProbability < 0 || cfg.Generator.ZeroProbability >= 1 {
		return fmt.Errorf("GENERATOR_ZERO_PROBABILITY must be in [0, 1)")
	}
	if cfg.Query.MaxRecentLimit < 1 {
		return fmt.Errorf("RECENT_MAX_LIMIT must be at least 1")
	}
	return nil
}

func LoadDashboard() (*DashboardConfig, error) {
	v := newViper()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DASHBOARD_API_URL", "http://localhost:8080/api")
	v.SetDefault("DASHBOARD_SOCKET_URL", "ws://localhost:8080/ws")
	v.SetDefault("DASHBOARD_GRACE_PERIOD", 5*time.Second)
	v.SetDefault("DASHBOARD_SIMULATION_INTERVAL", 3*time.Second)
	v.SetDefault("DASHBOARD_HOURLY_POLL_INTERVAL", time.Minute)
	v.SetDefault("DASHBOARD_RENDER_INTERVAL", 2*time.Second)
	v.SetDefault("DASHBOARD_SIMULATION_STORE_ID", 10)
	v.SetDefault("GENERATOR_MAX_IN", 3)
	v.SetDefault("GENERATOR_ZERO_PROBABILITY", 0.6)

	cfg := &DashboardConfig{
		Environment:        v.GetString("APP_ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		APIURL:             strings.TrimRight(v.GetString("DASHBOARD_API_URL"), "/"),
		SocketURL:          v.GetString("DASHBOARD_SOCKET_URL"),
		GracePeriod:        v.GetDuration("DASHBOARD_GRACE_PERIOD"),
		SimulationInterval: v.GetDuration("DASHBOARD_SIMULATION_INTERVAL"),
		HourlyPollInterval: v.GetDuration("DASHBOARD_HOURLY_POLL_INTERVAL"),
		RenderInterval:     v.GetDuration("DASHBOARD_RENDER_INTERVAL"),
		SimulationStoreID:  v.GetInt("DASHBOARD_SIMULATION_STORE_ID"),
		SimulationMaxIn:    v.GetInt("GENERATOR_MAX_IN"),
		SimulationZeroProb: v.GetFloat64("GENERATOR_ZERO_PROBABILITY"),
	}

	if err := validateDashboard(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateDashboard(cfg *DashboardConfig) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("DASHBOARD_API_URL is required")
	}
	if cfg.SocketURL == "" {
		return fmt.Errorf("DASHBOARD_SOCKET_URL is required")
	}
	if cfg.GracePeriod <= 0 || cfg.SimulationInterval <= 0 || cfg.HourlyPollInterval <= 0 || cfg.RenderInterval <= 0 {
		return fmt.Errorf("dashboard intervals must be positive")
	}
	if cfg.SimulationMaxIn < 1 {
		return fmt.Errorf("GENERATOR_MAX_IN must be at least 1")
	}
	if cfg.SimulationZeroProb < 0 || cfg.SimulationZeroProb >= 1 {
		return fmt.Errorf("GENERATOR_ZERO_PROBABILITY must be in [0, 1)")
	}
	return nil
}

func parseStoreIDs(raw string) ([]int, error) {
	var ids []int
	seen := make(map[int]struct{})
	for _, part := range splitList(raw) {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("GENERATOR_STORES: invalid store id %q", part)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
