// Config loading for the dinner CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jkmoore/whats-for-dinner/internal/paths"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyMongoURI      = "mongo_uri"
	cfgKeyMongoDatabase = "mongo_database"
	cfgKeyUserID        = "user_id"

	defaultBackend = types.BackendSQLite
	defaultUserID  = "local"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir,omitempty"`
	MongoURI      string `yaml:"mongo_uri,omitempty"`
	MongoDatabase string `yaml:"mongo_database,omitempty"`
	UserID        string `yaml:"user_id,omitempty"`
}

// loadConfig reads config.yaml from the config directory using Viper.
// A missing config.yaml is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyUserID, defaultUserID)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// resolveConfig combines flags, environment, and config.yaml into a validated
// store configuration plus the user id to sign in with.
func resolveConfig() (types.Config, string, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, "", err
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, "", err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, "", err
	}

	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		MongoURI:      v.GetString(cfgKeyMongoURI),
		MongoDatabase: v.GetString(cfgKeyMongoDatabase),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, "", err
	}

	userID := flags.user
	if userID == "" {
		userID = v.GetString(cfgKeyUserID)
	}
	return cfg, userID, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(configDir, dataDir string) error {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend: defaultBackend,
		DataDir: dataDir,
		UserID:  defaultUserID,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
