package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/internal/paths"
	"github.com/jkmoore/whats-for-dinner/internal/sqlite"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize dinner storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}

	// Data dir resolution skips config.yaml here: the file may not exist
	// yet, and init writes the resolved value into it.
	dataDir, err := paths.ResolveDataDir(flags.dataDir, "")
	if err != nil {
		return sysError("resolve data directory: %w", err)
	}

	if err := writeConfigIfMissing(configDir, dataDir); err != nil {
		return sysError("write config: %w", err)
	}

	// Initialize the data directory via Attach then Detach.
	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
	s := sqlite.NewStore()
	if err := s.Attach(cfg); err != nil {
		return sysError("initialize storage: %w", err)
	}
	if err := s.Detach(); err != nil {
		return sysError("finalize storage: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Dinner initialized successfully")
	return nil
}
