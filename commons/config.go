package commons

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/xid"
	yaml "gopkg.in/yaml.v2"
)

var (
	instanceID string
)

// getInstanceID returns instance ID
func getInstanceID() string {
	if len(instanceID) == 0 {
		instanceID = xid.New().String()
	}

	return instanceID
}

// GetDefaultLogFilePath returns default log file path
func GetDefaultLogFilePath() string {
	return fmt.Sprintf("%s_%s.log", LogFilePathPrefixDefault, getInstanceID())
}

// GetDefaultTempRootPath returns default temp root path
func GetDefaultTempRootPath() string {
	return fmt.Sprintf("%s_%s", TempRootPathPrefixDefault, getInstanceID())
}

// Config holds the parameters list which can be configured
type Config struct {
	ScopeRootPath  string `yaml:"scope_root_path,omitempty" envconfig:"SCOPE_ROOT"`
	RepositoryID   string `yaml:"repository_id,omitempty" envconfig:"REPOSITORY"`
	RefID          string `yaml:"ref_id,omitempty" envconfig:"REF"`
	TempRootPath   string `yaml:"temp_root_path,omitempty" envconfig:"TEMP_ROOT"`
	ArchiveMethod  string `yaml:"archive_method,omitempty" envconfig:"ARCHIVE_METHOD"`
	ArchiveSizeMax int64  `yaml:"archive_size_max,omitempty" envconfig:"ARCHIVE_SIZE_MAX"`

	LogPath string `yaml:"log_path,omitempty" envconfig:"LOG_PATH"`

	Profile            bool `yaml:"profile,omitempty" ignored:"true"`
	ProfileServicePort int  `yaml:"profile_service_port,omitempty" ignored:"true"`

	PrometheusExporterPort int `yaml:"prometheus_exporter_port,omitempty" ignored:"true"`

	Debug bool `yaml:"debug,omitempty" ignored:"true"`

	InstanceID string `yaml:"instanceid,omitempty" ignored:"true"`
}

// NewDefaultConfig creates DefaultConfig
func NewDefaultConfig() *Config {
	return &Config{
		ScopeRootPath:  "",
		RepositoryID:   "",
		RefID:          "",
		TempRootPath:   GetDefaultTempRootPath(),
		ArchiveMethod:  ArchiveMethodDefault,
		ArchiveSizeMax: ArchiveSizeMaxDefault,

		LogPath: "",

		Profile:            false,
		ProfileServicePort: ProfileServicePortDefault,

		PrometheusExporterPort: 0,

		Debug: false,

		InstanceID: getInstanceID(),
	}
}

// NewConfigFromYAML creates Config from YAML
func NewConfigFromYAML(yamlBytes []byte) (*Config, error) {
	config := NewDefaultConfig()

	err := yaml.Unmarshal(yamlBytes, config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML - %v", err)
	}

	return config, nil
}

// FillFromEnv fills scope and archive parameters from BUILDCACHE_* environment
// variables for fields that are not set yet
func (config *Config) FillFromEnv() error {
	envConfig := Config{}
	err := envconfig.Process("buildcache", &envConfig)
	if err != nil {
		return fmt.Errorf("failed to read configuration from environment - %v", err)
	}

	if len(config.ScopeRootPath) == 0 {
		config.ScopeRootPath = envConfig.ScopeRootPath
	}

	if len(config.RepositoryID) == 0 {
		config.RepositoryID = envConfig.RepositoryID
	}

	if len(config.RefID) == 0 {
		config.RefID = envConfig.RefID
	}

	if len(envConfig.TempRootPath) > 0 && config.TempRootPath == GetDefaultTempRootPath() {
		config.TempRootPath = envConfig.TempRootPath
	}

	if len(envConfig.ArchiveMethod) > 0 && config.ArchiveMethod == ArchiveMethodDefault {
		config.ArchiveMethod = envConfig.ArchiveMethod
	}

	if envConfig.ArchiveSizeMax > 0 && config.ArchiveSizeMax == ArchiveSizeMaxDefault {
		config.ArchiveSizeMax = envConfig.ArchiveSizeMax
	}

	if len(config.LogPath) == 0 {
		config.LogPath = envConfig.LogPath
	}

	return nil
}

// Validate validates configuration
func (config *Config) Validate() error {
	if len(config.TempRootPath) == 0 {
		return fmt.Errorf("temp root path must be given")
	}

	if config.ArchiveSizeMax <= 0 {
		return fmt.Errorf("archive size max must be a positive number")
	}

	if config.Profile && config.ProfileServicePort <= 0 {
		return fmt.Errorf("profile service port must be given")
	}

	return nil
}

// MakeWorkDirs makes dirs required
func (config *Config) MakeWorkDirs() error {
	err := os.MkdirAll(config.TempRootPath, 0755)
	if err != nil {
		return fmt.Errorf("failed to make temp root dir %q - %v", config.TempRootPath, err)
	}

	return nil
}

// CleanWorkDirs cleans dirs used
func (config *Config) CleanWorkDirs() error {
	err := os.RemoveAll(config.TempRootPath)
	if err != nil {
		return fmt.Errorf("failed to remove temp root dir %q - %v", config.TempRootPath, err)
	}

	return nil
}

// GetLogFilePath returns log file path
func (config *Config) GetLogFilePath() string {
	if config.LogPath == "-" {
		return ""
	}

	return config.LogPath
}
