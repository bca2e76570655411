// Package config loads archgraph settings from <store>/config.json with
// ARCHGRAPH_* environment overrides on top of built-in defaults.
package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"archgraph/internal/paths"
)

// CurrentVersion is the config schema version
const CurrentVersion = 1

// Config represents the complete archgraph configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	StoreDir string `json:"storeDir" mapstructure:"storeDir"`

	Scan       ScanConfig       `json:"scan" mapstructure:"scan"`
	Confidence ConfidenceConfig `json:"confidence" mapstructure:"confidence"`
	Query      QueryConfig      `json:"query" mapstructure:"query"`
	Rules      RulesConfig      `json:"rules" mapstructure:"rules"`
	Summary    SummaryConfig    `json:"summary" mapstructure:"summary"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
	Server     ServerConfig     `json:"server" mapstructure:"server"`
	Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
}

// ScanConfig contains file enumeration and write settings
type ScanConfig struct {
	Excludes             []string `json:"excludes" mapstructure:"excludes"`
	MaxFileSizeBytes     int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	MaxOpenFiles         int      `json:"maxOpenFiles" mapstructure:"maxOpenFiles"`
	Workers              int      `json:"workers" mapstructure:"workers"`
	WriteBatchSize       int      `json:"writeBatchSize" mapstructure:"writeBatchSize"`
	IncrementalThreshold int      `json:"incrementalThreshold" mapstructure:"incrementalThreshold"`
	HistoryEnabled       bool     `json:"historyEnabled" mapstructure:"historyEnabled"`
	HistoryKeep          int      `json:"historyKeep" mapstructure:"historyKeep"`
}

// ConfidenceConfig mirrors the scorer's floor and penalties
type ConfidenceConfig struct {
	Floor                float64 `json:"floor" mapstructure:"floor"`
	StringPenalty        float64 `json:"stringPenalty" mapstructure:"stringPenalty"`
	DocPenalty           float64 `json:"docPenalty" mapstructure:"docPenalty"`
	GeneratedPenalty     float64 `json:"generatedPenalty" mapstructure:"generatedPenalty"`
	ConfigPenalty        float64 `json:"configPenalty" mapstructure:"configPenalty"`
	MissingImportPenalty float64 `json:"missingImportPenalty" mapstructure:"missingImportPenalty"`
}

// QueryConfig contains default query bounds
type QueryConfig struct {
	DefaultDepth           int     `json:"defaultDepth" mapstructure:"defaultDepth"`
	SubgraphDepth          int     `json:"subgraphDepth" mapstructure:"subgraphDepth"`
	MaxPaths               int     `json:"maxPaths" mapstructure:"maxPaths"`
	MaxNodes               int     `json:"maxNodes" mapstructure:"maxNodes"`
	LowConfidenceThreshold float64 `json:"lowConfidenceThreshold" mapstructure:"lowConfidenceThreshold"`
}

// RulesConfig contains rule evaluation settings
type RulesConfig struct {
	// File is resolved against the store directory when relative
	File          string   `json:"file" mapstructure:"file"`
	SpofThreshold int      `json:"spofThreshold" mapstructure:"spofThreshold"`
	Disabled      []string `json:"disabled" mapstructure:"disabled"`
}

// SummaryConfig controls SUMMARY.md compression
type SummaryConfig struct {
	LineThreshold int `json:"lineThreshold" mapstructure:"lineThreshold"`
	TopN          int `json:"topN" mapstructure:"topN"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Bind      string  `json:"bind" mapstructure:"bind"`
	Port      int     `json:"port" mapstructure:"port"`
	RateLimit float64 `json:"rateLimit" mapstructure:"rateLimit"`
	RateBurst int     `json:"rateBurst" mapstructure:"rateBurst"`
}

// WatchConfig contains watch mode settings
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		StoreDir: paths.DefaultStoreDir,
		Scan: ScanConfig{
			Excludes:             []string{},
			MaxFileSizeBytes:     1 << 20,
			MaxOpenFiles:         64,
			Workers:              8,
			WriteBatchSize:       32,
			IncrementalThreshold: 50,
			HistoryEnabled:       true,
			HistoryKeep:          200,
		},
		Confidence: ConfidenceConfig{
			Floor:                0.5,
			StringPenalty:        0.3,
			DocPenalty:           0.4,
			GeneratedPenalty:     0.3,
			ConfigPenalty:        0.1,
			MissingImportPenalty: 0.2,
		},
		Query: QueryConfig{
			DefaultDepth:           5,
			SubgraphDepth:          2,
			MaxPaths:               100,
			MaxNodes:               100,
			LowConfidenceThreshold: 0.6,
		},
		Rules: RulesConfig{
			File:          paths.RulesFile,
			SpofThreshold: 5,
			Disabled:      []string{},
		},
		Summary: SummaryConfig{
			LineThreshold: 150,
			TopN:          10,
		},
		Logging: LoggingConfig{
			Format:     "auto",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Bind:      "localhost",
			Port:      9130,
			RateLimit: 20,
			RateBurst: 40,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
	}
}

// EnvOverride records one environment variable that changed a setting
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// envVarMappings maps environment variables to config keys
var envVarMappings = map[string]string{
	"ARCHGRAPH_STORE_DIR":                "storeDir",
	"ARCHGRAPH_SCAN_EXCLUDES":            "scan.excludes",
	"ARCHGRAPH_SCAN_MAX_FILE_SIZE_BYTES": "scan.maxFileSizeBytes",
	"ARCHGRAPH_SCAN_MAX_OPEN_FILES":      "scan.maxOpenFiles",
	"ARCHGRAPH_SCAN_WORKERS":             "scan.workers",
	"ARCHGRAPH_SCAN_WRITE_BATCH_SIZE":    "scan.writeBatchSize",
	"ARCHGRAPH_SCAN_HISTORY_ENABLED":     "scan.historyEnabled",
	"ARCHGRAPH_CONFIDENCE_FLOOR":         "confidence.floor",
	"ARCHGRAPH_QUERY_DEFAULT_DEPTH":      "query.defaultDepth",
	"ARCHGRAPH_QUERY_MAX_PATHS":          "query.maxPaths",
	"ARCHGRAPH_QUERY_MAX_NODES":          "query.maxNodes",
	"ARCHGRAPH_RULES_FILE":               "rules.file",
	"ARCHGRAPH_RULES_SPOF_THRESHOLD":     "rules.spofThreshold",
	"ARCHGRAPH_RULES_DISABLED":           "rules.disabled",
	"ARCHGRAPH_SUMMARY_LINE_THRESHOLD":   "summary.lineThreshold",
	"ARCHGRAPH_SUMMARY_TOP_N":            "summary.topN",
	"ARCHGRAPH_LOG_FORMAT":               "logging.format",
	"ARCHGRAPH_LOG_LEVEL":                "logging.level",
	"ARCHGRAPH_LOG_FILE":                 "logging.file",
	"ARCHGRAPH_SERVER_BIND":              "server.bind",
	"ARCHGRAPH_SERVER_PORT":              "server.port",
	"ARCHGRAPH_WATCH_DEBOUNCE_MS":        "watch.debounceMs",
}

// configPathEnv points at an explicit config file
const configPathEnv = "ARCHGRAPH_CONFIG_PATH"

// LoadResult describes where the configuration came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration for the project at projectRoot
func LoadConfig(projectRoot string) (*Config, error) {
	res, err := LoadConfigWithDetails(projectRoot)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its sources. The
// file is ARCHGRAPH_CONFIG_PATH when set, else <project>/.archgraph/config.json.
// A missing file leaves the defaults in place.
func LoadConfigWithDetails(projectRoot string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigType("json")

	res := &LoadResult{}
	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		configPath = filepath.Join(paths.NewLayout(projectRoot, paths.DefaultStoreDir).Root, paths.ConfigFile)
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if !isMissing(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		res.UsedDefaults = true
	} else {
		res.ConfigPath = configPath
	}

	res.EnvOverrides = applyEnvOverrides(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	res.Config = &cfg
	return res, nil
}

func isMissing(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return stderrors.As(err, &nf) || stderrors.Is(err, fs.ErrNotExist)
}

// setDefaults registers every field of cfg so env overrides and partial
// files merge key by key.
func setDefaults(v *viper.Viper, cfg *Config) {
	data, _ := json.Marshal(cfg)
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	setNested(v, "", m)
}

func setNested(v *viper.Viper, prefix string, m map[string]interface{}) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			setNested(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// applyEnvOverrides applies ARCHGRAPH_* variables. Values that do not
// parse as the key's type are ignored.
func applyEnvOverrides(v *viper.Viper) []EnvOverride {
	envs := make([]string, 0, len(envVarMappings))
	for env := range envVarMappings {
		envs = append(envs, env)
	}
	sort.Strings(envs)

	var overrides []EnvOverride
	for _, env := range envs {
		raw, ok := os.LookupEnv(env)
		if !ok || raw == "" {
			continue
		}
		key := envVarMappings[env]
		val, ok := parseLike(v.Get(key), raw)
		if !ok {
			continue
		}
		v.Set(key, val)
		overrides = append(overrides, EnvOverride{EnvVar: env, Key: key, Value: raw})
	}
	return overrides
}

// parseLike parses raw into the type of current
func parseLike(current interface{}, raw string) (interface{}, bool) {
	switch current.(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	case int, int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		return i, err == nil
	case []interface{}, []string:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	default:
		return raw, true
	}
}

// Save writes the configuration to <project>/<storeDir>/config.json
func (c *Config) Save(projectRoot string) error {
	layout := paths.NewLayout(projectRoot, c.StoreDir)
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return paths.WriteFileAtomic(layout.File(paths.ConfigFile), append(data, '\n'), 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.StoreDir == "" {
		return &ConfigError{Field: "storeDir", Message: "must not be empty"}
	}
	unit := map[string]float64{
		"confidence.floor":                c.Confidence.Floor,
		"confidence.stringPenalty":        c.Confidence.StringPenalty,
		"confidence.docPenalty":           c.Confidence.DocPenalty,
		"confidence.generatedPenalty":     c.Confidence.GeneratedPenalty,
		"confidence.configPenalty":        c.Confidence.ConfigPenalty,
		"confidence.missingImportPenalty": c.Confidence.MissingImportPenalty,
		"query.lowConfidenceThreshold":    c.Query.LowConfidenceThreshold,
	}
	for _, field := range sortedKeys(unit) {
		if v := unit[field]; v < 0 || v > 1 {
			return &ConfigError{Field: field, Message: fmt.Sprintf("must be within [0,1], got %v", v)}
		}
	}
	nonNegative := map[string]int{
		"scan.maxOpenFiles":          c.Scan.MaxOpenFiles,
		"scan.workers":               c.Scan.Workers,
		"scan.writeBatchSize":        c.Scan.WriteBatchSize,
		"scan.incrementalThreshold":  c.Scan.IncrementalThreshold,
		"scan.historyKeep":           c.Scan.HistoryKeep,
		"query.defaultDepth":         c.Query.DefaultDepth,
		"query.subgraphDepth":        c.Query.SubgraphDepth,
		"query.maxPaths":             c.Query.MaxPaths,
		"query.maxNodes":             c.Query.MaxNodes,
		"rules.spofThreshold":        c.Rules.SpofThreshold,
		"summary.lineThreshold":      c.Summary.LineThreshold,
		"summary.topN":               c.Summary.TopN,
		"watch.debounceMs":           c.Watch.DebounceMs,
		"logging.maxBackups":         c.Logging.MaxBackups,
	}
	for _, field := range sortedKeys(nonNegative) {
		if v := nonNegative[field]; v < 0 {
			return &ConfigError{Field: field, Message: fmt.Sprintf("must not be negative, got %d", v)}
		}
	}
	if c.Scan.MaxFileSizeBytes < 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must not be negative"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: fmt.Sprintf("out of range: %d", c.Server.Port)}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
