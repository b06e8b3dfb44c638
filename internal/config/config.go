package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Registry and authoritative table feeds. Empty paths select the embedded defaults.
	DiseaseRegistryPath string
	CityRegistryPath    string
	RiskTablePath       string

	// OpenWeather live observation source.
	OpenWeatherAPIKey    string
	OpenWeatherEnabled   bool
	OpenWeatherBaseURL   string
	OpenWeatherTimeout   time.Duration
	OpenWeatherCacheTTL  time.Duration
	OpenWeatherCacheSize int
	OpenWeatherRPS       float64

	// Upstream multi-month model forecast. Disabled when the URL is empty.
	ModelFeedURL     string
	ModelFeedTimeout time.Duration

	// High-risk alert publication.
	AlertEnabled       bool
	AlertInterval      time.Duration
	AlertMinRisk       float64
	AlertOutlookMonths int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	owTimeout, err := parsePositiveDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	owCacheTTL, err := parsePositiveDuration("OPENWEATHER_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	owRPS, err := parsePositiveFloat("OPENWEATHER_RPS", "1")
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parsePositiveDuration("MODEL_FEED_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	alertInterval, err := parsePositiveDuration("ALERT_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	alertMinRisk, err := parseAlertMinRisk()
	if err != nil {
		return nil, err
	}
	alertOutlook, err := parseAlertOutlook()
	if err != nil {
		return nil, err
	}

	owKey := os.Getenv("OPENWEATHER_API_KEY")
	owEnabled := owKey != ""
	if v := os.Getenv("OPENWEATHER_ENABLED"); v != "" {
		owEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "disease-risk-table-updates"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "disease-risk-alerts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disease-risk-service"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DiseaseRegistryPath: os.Getenv("DISEASE_REGISTRY_PATH"),
		CityRegistryPath:    os.Getenv("CITY_REGISTRY_PATH"),
		RiskTablePath:       os.Getenv("RISK_TABLE_PATH"),

		OpenWeatherAPIKey:    owKey,
		OpenWeatherEnabled:   owEnabled,
		OpenWeatherBaseURL:   sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		OpenWeatherTimeout:   owTimeout,
		OpenWeatherCacheTTL:  owCacheTTL,
		OpenWeatherCacheSize: parseCacheSize(),
		OpenWeatherRPS:       owRPS,

		ModelFeedURL:     os.Getenv("MODEL_FEED_URL"),
		ModelFeedTimeout: modelTimeout,

		AlertEnabled:       sharedcfg.EnvOrDefault("ALERT_ENABLED", "true") == "true",
		AlertInterval:      alertInterval,
		AlertMinRisk:       alertMinRisk,
		AlertOutlookMonths: alertOutlook,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveFloat(name, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(name, def), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func parseAlertMinRisk() (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("ALERT_MIN_RISK", "70"), 64)
	if err != nil || v < 0 || v > 100 {
		return 0, errors.New("invalid ALERT_MIN_RISK: must be within 0-100")
	}
	return v, nil
}

func parseAlertOutlook() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("ALERT_OUTLOOK_MONTHS", "3"))
	if err != nil || n < 1 || n > 12 {
		return 0, errors.New("invalid ALERT_OUTLOOK_MONTHS: must be within 1-12")
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("OPENWEATHER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
