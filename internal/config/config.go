// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/whitespc/whitespc/internal/util"
)

// ErrInvalidConfig matches every validation failure via errors.Is.
var ErrInvalidConfig = errors.New("invalid config")

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete whitespc configuration.
type Config struct {
	Version  string         `toml:"version" json:"version"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Security SecurityConfig `toml:"security" json:"security"`
	UI       UIConfig       `toml:"ui" json:"ui"`
}

// StorageConfig selects where the settings record lives.
type StorageConfig struct {
	// Backend is one of sqlite, file, memory.
	Backend string `toml:"backend" json:"backend"`

	// Path overrides the default location inside ConfigDir. A leading ~ is
	// expanded to the home directory.
	Path string `toml:"path" json:"path"`
}

// SecurityConfig controls credential hashing and audit logging.
type SecurityConfig struct {
	// HashScheme is the format for newly written hashes: pbkdf2 or legacy.
	HashScheme string `toml:"hash_scheme" json:"hash_scheme"`

	// PBKDF2Iterations is the work factor for the pbkdf2 scheme.
	PBKDF2Iterations int `toml:"pbkdf2_iterations" json:"pbkdf2_iterations"`

	AuditEnabled bool   `toml:"audit_enabled" json:"audit_enabled"`
	AuditLogPath string `toml:"audit_log_path" json:"audit_log_path"`

	// AuditMaxSizeBytes rotates the audit log once it reaches this size.
	// 0 disables size based rotation.
	AuditMaxSizeBytes int64 `toml:"audit_max_size_bytes" json:"audit_max_size_bytes"`
}

// UIConfig tunes the lock screen.
type UIConfig struct {
	// PollIntervalMs is how often the lock screen checks auto-lock.
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms"`

	// ActivityIntervalSecs is the minimum gap between persisted activity
	// timestamps while the user types.
	ActivityIntervalSecs int `toml:"activity_interval_secs" json:"activity_interval_secs"`
}

// DefaultAuditMaxSizeBytes is 10MB.
const DefaultAuditMaxSizeBytes int64 = 10 * 1024 * 1024

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
		Security: SecurityConfig{
			HashScheme:       "pbkdf2",
			PBKDF2Iterations:  600000,
			AuditEnabled:      true,
			AuditMaxSizeBytes: DefaultAuditMaxSizeBytes,
		},
		UI: UIConfig{
			PollIntervalMs:       1000,
			ActivityIntervalSecs: 15,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the whitespc directory, $WHITESPC_HOME or ~/.whitespc.
func ConfigDir() (string, error) {
	if dir := os.Getenv("WHITESPC_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".whitespc"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// StoragePath resolves the settings location for the configured backend.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	switch c.Storage.Backend {
	case BackendFile:
		return filepath.Join(dir, "settings.json"), nil
	case BackendMemory:
		return "", nil
	default:
		return filepath.Join(dir, "whitespc.db"), nil
	}
}

// AuditPath resolves the audit log location.
func (c *Config) AuditPath() (string, error) {
	if c.Security.AuditLogPath != "" {
		return expandHome(c.Security.AuditLogPath)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.log"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ConfigPath if it exists, otherwise uses defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads a TOML file over the defaults, applies environment
// overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ReadFile decodes path over the defaults without applying environment
// overrides or validating. A missing file yields the defaults. Edits that
// are saved back to the file start from here.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	cfg.SetDefaults()
	return cfg, nil
}

// SetDefaults fills zero values that have no meaning of their own.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Security.HashScheme == "" {
		c.Security.HashScheme = d.Security.HashScheme
	}
	if c.Security.PBKDF2Iterations == 0 {
		c.Security.PBKDF2Iterations = d.Security.PBKDF2Iterations
	}
	if c.UI.PollIntervalMs == 0 {
		c.UI.PollIntervalMs = d.UI.PollIntervalMs
	}
	if c.UI.ActivityIntervalSecs == 0 {
		c.UI.ActivityIntervalSecs = d.UI.ActivityIntervalSecs
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to ConfigPath.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# whitespc configuration file\n")
	buf.WriteString("# Environment variables (WHITESPC_*) override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidConfig) match.
func (e ValidateErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks every field and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: sqlite, file, memory", c.Storage.Backend),
		})
	}

	switch strings.ToLower(c.Security.HashScheme) {
	case "pbkdf2", "legacy":
	default:
		errs = append(errs, ValidationError{
			Field:   "security.hash_scheme",
			Message: fmt.Sprintf("invalid scheme '%s', must be one of: pbkdf2, legacy", c.Security.HashScheme),
		})
	}

	if c.Security.PBKDF2Iterations < 1000 {
		errs = append(errs, ValidationError{
			Field:   "security.pbkdf2_iterations",
			Message: fmt.Sprintf("must be at least 1000, got %d", c.Security.PBKDF2Iterations),
		})
	}

	if c.Security.AuditMaxSizeBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "security.audit_max_size_bytes",
			Message: fmt.Sprintf("must not be negative, got %d", c.Security.AuditMaxSizeBytes),
		})
	}

	if c.UI.PollIntervalMs < 100 || c.UI.PollIntervalMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "ui.poll_interval_ms",
			Message: fmt.Sprintf("must be between 100 and 60000, got %d", c.UI.PollIntervalMs),
		})
	}

	if c.UI.ActivityIntervalSecs < 1 || c.UI.ActivityIntervalSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "ui.activity_interval_secs",
			Message: fmt.Sprintf("must be between 1 and 3600, got %d", c.UI.ActivityIntervalSecs),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - WHITESPC_STORAGE_BACKEND: overrides storage.backend
//   - WHITESPC_STORAGE_PATH: overrides storage.path
//   - WHITESPC_HASH_SCHEME: overrides security.hash_scheme
//   - WHITESPC_PBKDF2_ITERATIONS: overrides security.pbkdf2_iterations
//   - WHITESPC_AUDIT: overrides security.audit_enabled (1/true/0/false)
//   - WHITESPC_AUDIT_LOG: overrides security.audit_log_path
//   - WHITESPC_POLL_INTERVAL_MS: overrides ui.poll_interval_ms
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("WHITESPC_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("WHITESPC_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("WHITESPC_HASH_SCHEME"); v != "" {
		c.Security.HashScheme = v
	}
	if v := os.Getenv("WHITESPC_PBKDF2_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Security.PBKDF2Iterations = n
		}
	}
	if v := os.Getenv("WHITESPC_AUDIT"); v != "" {
		c.Security.AuditEnabled = parseBool(v)
	}
	if v := os.Getenv("WHITESPC_AUDIT_LOG"); v != "" {
		c.Security.AuditLogPath = v
	}
	if v := os.Getenv("WHITESPC_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UI.PollIntervalMs = n
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value using dot notation (e.g., "ui.poll_interval_ms").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a value using dot notation. String values are converted to the
// field's type. The result is not validated.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, section.Tag.Get("toml"))
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}
