package tool

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/qrsend/types"
)

var (
	ConfigPath = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	// ConfigFs is the filesystem the config file lives on. Tests swap in afero.NewMemMapFs().
	ConfigFs afero.Fs = afero.NewOsFs()

	configMu      sync.RWMutex
	CurrentConfig types.AppConfig
)

const (
	DefaultPort            = 53317
	DefaultPollIntervalMs  = 500
	DefaultShareTTLSeconds = 3600
	DefaultRateLimit       = 20
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		Alias:           NameGenerator(),
		Version:         "2.0", // LocalSend protocol version
		DeviceModel:     "qrsend",
		DeviceType:      "headless",
		Fingerprint:     "",
		Port:            DefaultPort,
		Protocol:        "http", // the QR link is opened by a phone browser, self-signed https gets in the way
		PollIntervalMs:  DefaultPollIntervalMs,
		ShareTTLSeconds: DefaultShareTTLSeconds,
		RateLimit:       DefaultRateLimit,
	}
}

// LoadConfig reads path (or ConfigPath) into CurrentConfig. A missing file is created with defaults.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()
	configChanged := false

	info, err := ConfigFs.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %v", err)
		}
		cfg.Fingerprint = GenerateFingerprint()
		if writeErr := writeConfig(path, cfg); writeErr != nil {
			return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
		}
		DefaultLogger.Infof("Created new config file: %s", path)
		setCurrentConfig(cfg)
		return cfg, nil
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := afero.ReadFile(ConfigFs, path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	if cfg.Fingerprint == "" {
		cfg.Fingerprint = GenerateFingerprint()
		DefaultLogger.Infof("Generated random fingerprint")
		configChanged = true
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = DefaultPollIntervalMs
		configChanged = true
	}
	if cfg.ShareTTLSeconds <= 0 {
		cfg.ShareTTLSeconds = DefaultShareTTLSeconds
		configChanged = true
	}

	if configChanged {
		if writeErr := writeConfig(path, cfg); writeErr != nil {
			DefaultLogger.Warnf("Failed to update config file: %v", writeErr)
		}
	}

	setCurrentConfig(cfg)
	return cfg, nil
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(ConfigFs, path, data, 0o644)
}

func setCurrentConfig(cfg types.AppConfig) {
	configMu.Lock()
	defer configMu.Unlock()
	CurrentConfig = cfg
}

// GetCurrentConfig returns a copy of the in-memory config.
func GetCurrentConfig() types.AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return CurrentConfig
}

// UpdateConfig applies fn to the in-memory config and writes the result to ConfigPath.
// On write failure the in-memory config is left untouched.
func UpdateConfig(fn func(cfg *types.AppConfig)) error {
	configMu.Lock()
	defer configMu.Unlock()
	next := CurrentConfig
	fn(&next)
	if err := writeConfig(ConfigPath, next); err != nil {
		return fmt.Errorf("failed to persist config: %v", err)
	}
	CurrentConfig = next
	return nil
}
