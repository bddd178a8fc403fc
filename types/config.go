package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Alias           string `yaml:"alias"`
	Version         string `yaml:"version"`
	DeviceModel     string `yaml:"deviceModel"`
	DeviceType      string `yaml:"deviceType"`
	Fingerprint     string `yaml:"fingerprint"`
	Port            int    `yaml:"port"`
	Protocol        string `yaml:"protocol"`
	Pin             string `yaml:"pin,omitempty"`
	DownloadDir     string `yaml:"downloadDir,omitempty"`
	PollIntervalMs  int    `yaml:"pollIntervalMs"`
	ShareTTLSeconds int    `yaml:"shareTTLSeconds"`
	RateLimit       int    `yaml:"rateLimit"` // requests per second on the public API, 0 disables
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log            string
	UseConfigPath  string
	UseAlias       string
	UsePort        int
	UseDownloadDir string
	UsePin         string
	Send           string // comma separated paths dropped at startup
	SkipNotify     bool   // if true, skip unix socket notify.
	PollInterval   int    // liveness poll interval in milliseconds, 0 keeps the config value
}
