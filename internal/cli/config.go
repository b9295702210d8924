package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/catalog/internal/paths"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

const envPrefix = "CATALOG"

// Config keys.
const (
	cfgKeyBaseURL   = "base_url"
	cfgKeyCSRFToken = "csrf_token"
	cfgKeySessionID = "session_id"
	cfgKeyDataDir   = "data_dir"
	cfgKeyListen    = "listen"
)

const (
	defaultListen  = "127.0.0.1:8000"
	defaultBaseURL = "http://" + defaultListen
)

// loadConfig reads config.yaml from configDir. A .env file beside it is
// loaded into the environment first; variables already set are kept.
// CATALOG_* variables override file values. Missing files are not errors.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := godotenv.Load(filepath.Join(configDir, paths.EnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", paths.EnvFile, err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBaseURL, defaultBaseURL)
	v.SetDefault(cfgKeyListen, defaultListen)
	v.SetDefault(cfgKeyCSRFToken, "")
	v.SetDefault(cfgKeySessionID, "")
	v.SetDefault(cfgKeyDataDir, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(strings.TrimSuffix(paths.ConfigFile, filepath.Ext(paths.ConfigFile)))
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// clientConfig builds the transport configuration from v.
func clientConfig(v *viper.Viper) types.ClientConfig {
	return types.ClientConfig{
		BaseURL:   v.GetString(cfgKeyBaseURL),
		CSRFToken: v.GetString(cfgKeyCSRFToken),
		SessionID: v.GetString(cfgKeySessionID),
	}
}

func resolveConfigDir(flag string) (string, error) {
	return paths.ResolveConfigDir(flag)
}

// dataDir returns the data directory: --data-dir, then data_dir from
// CATALOG_DATA_DIR or config.yaml, then the platform default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
}
