package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := parseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

func parseYAML(b []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(b, &yamlConfig); err != nil {
		return nil, err
	}

	config := yamlConfig.toData()
	if err := ApplyDefaults(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetStationConfig returns the station configuration
func (y *YAMLProvider) GetStationConfig() (*StationData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Station, nil
}

// GetHostConfig returns the host connection configuration
func (y *YAMLProvider) GetHostConfig() (*HostData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Host, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Storage, nil
}

// GetParams returns no parameters; the YAML file cannot store them
func (y *YAMLProvider) GetParams() (map[string]string, error) {
	return nil, nil
}

// SaveParams is not supported by YAML files
func (y *YAMLProvider) SaveParams(map[string]string) error {
	return ErrReadOnly
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags
type ConfigYAML struct {
	Station StationYAML     `yaml:"station"`
	Polling PollingYAML     `yaml:"polling,omitempty"`
	Host    HostYAML        `yaml:"host"`
	Storage StorageYAML     `yaml:"storage,omitempty"`
	REST    *RESTServerYAML `yaml:"rest,omitempty"`
	Log     LogYAML         `yaml:"log,omitempty"`
}

type StationYAML struct {
	User        string `yaml:"user,omitempty"`
	Password    string `yaml:"password,omitempty"`
	APIToken    string `yaml:"api-token,omitempty"`
	StationID   string `yaml:"station-id,omitempty"`
	Units       string `yaml:"units,omitempty"`
	APIEndpoint string `yaml:"api-endpoint,omitempty"`
}

type PollingYAML struct {
	ShortPoll string `yaml:"short-poll,omitempty"`
	LongPoll  string `yaml:"long-poll,omitempty"`
}

type HostYAML struct {
	Broker   string `yaml:"broker,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	ClientID string `yaml:"client-id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Profile  int    `yaml:"profile,omitempty"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
	Station          string `yaml:"station,omitempty"`
}

type RESTServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

type LogYAML struct {
	Debug      bool   `yaml:"debug,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
	MaxAgeDays int    `yaml:"max-age-days,omitempty"`
}

// Convert to our internal format
func (c ConfigYAML) toData() *ConfigData {
	config := &ConfigData{
		Station: StationData(c.Station),
		Polling: PollingData(c.Polling),
		Host:    HostData(c.Host),
		Log:     LogData(c.Log),
	}
	if c.Storage.TimescaleDB != nil {
		ts := TimescaleDBData(*c.Storage.TimescaleDB)
		config.Storage.TimescaleDB = &ts
	}
	if c.REST != nil {
		rest := RESTServerData(*c.REST)
		config.REST = &rest
	}
	return config
}

// ToYAML converts configuration back to its file representation
func ToYAML(c *ConfigData) ([]byte, error) {
	out := ConfigYAML{
		Station: StationYAML(c.Station),
		Polling: PollingYAML(c.Polling),
		Host:    HostYAML(c.Host),
		Log:     LogYAML(c.Log),
	}
	if c.Storage.TimescaleDB != nil {
		ts := TimescaleDBYAML(*c.Storage.TimescaleDB)
		out.Storage.TimescaleDB = &ts
	}
	if c.REST != nil {
		rest := RESTServerYAML(*c.REST)
		out.REST = &rest
	}
	return yaml.Marshal(out)
}
