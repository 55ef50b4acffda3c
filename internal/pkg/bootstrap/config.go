package bootstrap

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"vigor/internal/pkg/logger"
)

// Config holds everything the service reads at startup. Values come from a
// yaml file pointed at by CONFIG_PATH; missing sections keep their defaults.
type Config struct {
	App struct {
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Pricing struct {
		TaxRate               float64 `yaml:"tax_rate"`
		FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
		ShippingBaseRate      float64 `yaml:"shipping_base_rate"`
	} `yaml:"pricing"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"infra"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

func defaultConfig() Config {
	var c Config
	c.App.LogLevel = "info"
	c.Pricing.TaxRate = 0.21
	c.Pricing.FreeShippingThreshold = 50
	c.Pricing.ShippingBaseRate = 4.95
	c.Infra.Kafka.Topic = "checkout-events"
	return c
}

// Init loads the configuration. Safe to call more than once.
func Init() {
	configOnce.Do(func() {
		currentConfig = defaultConfig()

		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.L().Warn().Str("path", path).Err(err).Msg("config file not readable, using defaults")
			return
		}
		if err := yaml.Unmarshal(data, &currentConfig); err != nil {
			logger.L().Fatal().Str("path", path).Err(err).Msg("config file is not valid yaml")
		}
	})
}

// GetCurrentConfig returns the loaded configuration.
func GetCurrentConfig() Config {
	return currentConfig
}
