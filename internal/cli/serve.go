package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/catalog/internal/entity"
	"github.com/mesh-intelligence/catalog/internal/server"
	"github.com/mesh-intelligence/catalog/pkg/sqlite"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local catalog backend over SQLite",
		Long: `Serve runs a development catalog backend that speaks the same REST
contract as the production service, storing records in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.GetString(cfgKeyListen)
			}
			dataDir, err := a.dataDir()
			if err != nil {
				return systemError(fmt.Errorf("resolve data dir: %w", err))
			}

			store := sqlite.NewStore()
			if err := store.Attach(types.StoreConfig{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
				return systemError(fmt.Errorf("attach store: %w", err))
			}
			defer store.Detach()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, listen, store)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default: listen from config)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string, store types.Store) error {
	h := server.New(store, server.WithSchemas(schemas()), server.WithLogger(a.log))
	a.log.Info("serving catalog", "addr", addr)
	if err := server.Run(ctx, addr, h); err != nil {
		return systemError(err)
	}
	return nil
}

// schemas maps each resource to the fields of its variant.
func schemas() map[string][]string {
	vs := entity.Models.Variants()
	out := make(map[string][]string, len(vs))
	for _, v := range vs {
		out[v.Name] = v.Fields
	}
	return out
}
