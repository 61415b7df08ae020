package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ConfigOptions holds configuration loading options
type ConfigOptions struct {
	// ConfigFile is an explicit file; when set the search paths are ignored
	ConfigFile  string
	ConfigPaths []string
	ConfigName  string
	ConfigType  string
	EnvPrefix   string
	DefaultsMap map[string]interface{}
}

// NewViperConfigWithOptions creates a Viper configuration with custom options.
// A config file that cannot be found in the search paths is not an error: the
// defaults and environment still apply. An explicit file must exist.
func NewViperConfigWithOptions(opts ConfigOptions) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType(opts.ConfigType)

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	}

	for key, value := range opts.DefaultsMap {
		v.SetDefault(key, value)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
		log.Infof("Loaded config file: %s", v.ConfigFileUsed())
		return v, nil
	}

	for _, path := range opts.ConfigPaths {
		v.AddConfigPath(path)
	}
	v.SetConfigName(opts.ConfigName)

	log.Debugf("Searching for config file: %s in paths: %v", opts.ConfigName, opts.ConfigPaths)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debugf("No config file found, using defaults and environment")
			return v, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Infof("Loaded config file: %s", v.ConfigFileUsed())
	return v, nil
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// EnsureParentDirectory creates the directory that will hold file.
func EnsureParentDirectory(file string) error {
	return EnsureDirectoryExists(filepath.Dir(file))
}
