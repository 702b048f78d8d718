// Package config loads service settings from environment variables. Every
// enum-valued setting is parsed into its typed form at load time so an
// unknown model source, method, or surface fails the process at startup
// instead of surfacing mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/ssebop-etl/internal/refet"
	"github.com/couchcryptid/ssebop-etl/internal/ssebop"
	"github.com/couchcryptid/ssebop-etl/internal/weather"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Model configuration.
	ModelSource weather.Source
	Method      refet.Method
	RsoType     refet.RsoType
	Surface     refet.Surface
	Lapse       ssebop.LapseMode
	Params      ssebop.Params

	// Run window, inclusive on both ends.
	StartDate time.Time
	EndDate   time.Time

	SceneWorkers int

	// Verbose attaches the intermediate model grids to every product.
	Verbose bool

	// Input: exactly one of DataDir (fixture directory) or CatalogURL.
	DataDir          string
	CatalogURL       string
	CatalogTimeout   time.Duration
	CatalogCacheSize int

	// Output sinks; at least one must be configured.
	OutputDir        string
	KafkaBrokers     []string
	KafkaSinkTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	source, err := weather.ParseSource(envOrDefault("MODEL_SOURCE", "nasa"))
	if err != nil {
		return nil, err
	}
	method, err := refet.ParseMethod(envOrDefault("REFET_METHOD", "asce"))
	if err != nil {
		return nil, err
	}
	rsoType, err := refet.ParseRsoType(os.Getenv("RSO_TYPE"))
	if err != nil {
		return nil, err
	}
	// Alfalfa is the operational default; ET0 deployments set
	// REFERENCE_SURFACE=grass.
	surface, err := refet.ParseSurface(envOrDefault("REFERENCE_SURFACE", "alfalfa"))
	if err != nil {
		return nil, err
	}
	lapse, err := ssebop.ParseLapseMode(os.Getenv("LAPSE_ADJUST"))
	if err != nil {
		return nil, err
	}

	params := ssebop.DefaultParams()
	params.WaterPct, err = parseFloat("FANO_WATER_PCT", params.WaterPct)
	if err != nil {
		return nil, err
	}
	params.CoarseFactor, err = parseInt("COARSE_FACTOR", params.CoarseFactor)
	if err != nil {
		return nil, err
	}
	params.RegionFactor, err = parseInt("REGION_FACTOR", params.RegionFactor)
	if err != nil {
		return nil, err
	}

	start, err := parseDate("START_DATE")
	if err != nil {
		return nil, err
	}
	end, err := parseDate("END_DATE")
	if err != nil {
		return nil, err
	}

	workers, err := parseInt("SCENE_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	verbose, err := parseBool("VERBOSE_OUTPUT", false)
	if err != nil {
		return nil, err
	}

	catalogTimeout, err := parseDurationEnv("CATALOG_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	catalogCacheSize, err := parseInt("CATALOG_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ModelSource:      source,
		Method:           method,
		RsoType:          rsoType,
		Surface:          surface,
		Lapse:            lapse,
		Params:           params,
		StartDate:        start,
		EndDate:          end,
		SceneWorkers:     workers,
		Verbose:          verbose,
		DataDir:          os.Getenv("DATA_DIR"),
		CatalogURL:       strings.TrimRight(os.Getenv("CATALOG_URL"), "/"),
		CatalogTimeout:   catalogTimeout,
		CatalogCacheSize: catalogCacheSize,
		OutputDir:        os.Getenv("OUTPUT_DIR"),
		KafkaBrokers:     parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "et-products"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if cfg.EndDate.Before(cfg.StartDate) {
		return nil, errors.New("END_DATE is before START_DATE")
	}
	if cfg.DataDir == "" && cfg.CatalogURL == "" {
		return nil, errors.New("one of DATA_DIR or CATALOG_URL is required")
	}
	if cfg.DataDir != "" && cfg.CatalogURL != "" {
		return nil, errors.New("DATA_DIR and CATALOG_URL are mutually exclusive")
	}
	if cfg.OutputDir == "" && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("at least one sink is required: OUTPUT_DIR or KAFKA_BROKERS")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.SceneWorkers < 1 {
		return nil, errors.New("SCENE_WORKERS must be at least 1")
	}
	if cfg.Params.CoarseFactor < 1 || cfg.Params.RegionFactor < 1 {
		return nil, errors.New("COARSE_FACTOR and REGION_FACTOR must be at least 1")
	}
	if cfg.Params.WaterPct < 0 || cfg.Params.WaterPct > 100 {
		return nil, errors.New("FANO_WATER_PCT must be between 0 and 100")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required (YYYY-MM-DD)", key)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
