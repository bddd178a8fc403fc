package types

type DeviceInfo struct {
	Alias       string `json:"alias"`
	Version     string `json:"version"`
	DeviceModel string `json:"deviceModel,omitempty"`
	DeviceType  string `json:"deviceType,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
	Download    bool   `json:"download,omitempty"`
}

// DeviceInfoReverseMode documents the fields relevant when a device acts as a sender in download mode.
type DeviceInfoReverseMode struct {
	Alias       string `json:"alias"`                 // e.g. "Nice Orange"
	Version     string `json:"version"`               // protocol version (major.minor)
	DeviceModel string `json:"deviceModel,omitempty"` // Optional, e.g. "Samsung"
	DeviceType  string `json:"deviceType,omitempty"`  // Optional, e.g. "mobile", "desktop", "headless"
	Fingerprint string `json:"fingerprint"`           // Device identifier (ignored in HTTPS mode)
	Download    bool   `json:"download,omitempty"`
}

// SelfNetworkInfo represents the local device's network information
// including IP address and segment number
type SelfNetworkInfo struct {
	InterfaceName string `json:"interface_name"` // network interface name
	IPAddress     string `json:"ip_address"`     // ip address
	Number        string `json:"number"`         // number
	NumberInt     int    `json:"number_int"`     // number int
}
