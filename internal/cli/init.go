package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/catalog/internal/paths"
	"github.com/mesh-intelligence/catalog/pkg/sqlite"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	BaseURL string `yaml:"base_url"`
	Listen  string `yaml:"listen"`
	DataDir string `yaml:"data_dir,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and local data directories",
		Long: `Init writes a default config.yaml to the configuration directory if none
exists and creates the SQLite database used by "catalog serve".`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	dataDir, err := a.dataDir()
	if err != nil {
		return systemError(fmt.Errorf("resolve data dir: %w", err))
	}

	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return systemError(fmt.Errorf("create config directory: %w", err))
	}
	cfgPath := filepath.Join(a.configDir, paths.ConfigFile)
	created, err := writeConfigIfMissing(cfgPath, configFile{
		BaseURL: a.cfg.GetString(cfgKeyBaseURL),
		Listen:  a.cfg.GetString(cfgKeyListen),
		DataDir: a.flags.dataDir,
	})
	if err != nil {
		return systemError(fmt.Errorf("write config: %w", err))
	}

	store := sqlite.NewStore()
	if err := store.Attach(types.StoreConfig{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return systemError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := store.Detach(); err != nil {
		return systemError(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(out, "wrote %s\n", cfgPath)
	}
	fmt.Fprintf(out, "data directory %s ready\n", dataDir)
	return nil
}

// writeConfigIfMissing writes cfg to path unless the file already exists.
// It reports whether the file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
