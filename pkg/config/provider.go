package config

import "errors"

// ErrReadOnly is returned by write operations on read-only providers
var ErrReadOnly = errors.New("configuration provider is read-only")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStationConfig() (*StationData, error)
	GetHostConfig() (*HostData, error)
	GetStorageConfig() (*StorageData, error)

	// Custom parameters received from the host.  Read-only providers return
	// no parameters and ErrReadOnly on save.
	GetParams() (map[string]string, error)
	SaveParams(params map[string]string) error

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Station StationData     `json:"station"`
	Polling PollingData     `json:"polling"`
	Host    HostData        `json:"host"`
	Storage StorageData     `json:"storage,omitempty"`
	REST    *RESTServerData `json:"rest,omitempty"`
	Log     LogData         `json:"log"`
}

// StationData holds the WeatherLink account and unit settings.  Values set
// here seed the node server's custom parameters; values saved on the host
// take precedence.
type StationData struct {
	User        string `json:"user,omitempty"`
	Password    string `json:"password,omitempty"`
	APIToken    string `json:"api_token,omitempty"`
	StationID   string `json:"station_id,omitempty"`
	Units       string `json:"units" default:"us"`
	APIEndpoint string `json:"api_endpoint" default:"https://api.weatherlink.com" validate:"url"`
}

// PollingData holds the poll intervals as Go duration strings
type PollingData struct {
	ShortPoll string `json:"short_poll" default:"60s" validate:"duration"`
	LongPoll  string `json:"long_poll" default:"240s" validate:"duration"`
}

// HostData holds the MQTT connection to the home-automation host
type HostData struct {
	Broker   string `json:"broker" default:"localhost" validate:"required"`
	Port     int    `json:"port" default:"1883" validate:"port"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Profile  int    `json:"profile" default:"1" validate:"min=1"`
}

// StorageData holds the configuration for various storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" validate:"required"`
	Station          string `json:"station,omitempty" default:"weatherlink"`
}

type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" default:"0.0.0.0"`
	Port       int    `json:"port" default:"8080" validate:"port"`
}

// LogData configures logging.  MaxSizeMB, MaxBackups and MaxAgeDays apply
// to File only.
type LogData struct {
	Debug      bool   `json:"debug,omitempty"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb" default:"10"`
	MaxBackups int    `json:"max_backups" default:"3"`
	MaxAgeDays int    `json:"max_age_days" default:"28"`
}
