// Package cli implements the dinner command-line interface. Every command
// talks to the document store through the same synchronizer, search, and
// recipe-editing packages the app UI uses, so the CLI exercises the exact
// code paths the UI does.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/internal/mongodb"
	"github.com/jkmoore/whats-for-dinner/internal/sqlite"
	appsync "github.com/jkmoore/whats-for-dinner/pkg/sync"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	user      string
	jsonMode  bool
	debug     bool
}

var flags rootFlags

// Command-scoped state wired up by PersistentPreRunE and torn down by
// PersistentPostRunE.
var (
	logger  zerolog.Logger
	store   types.Store
	session *appsync.Session
)

// NewRootCmd creates the top-level "dinner" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dinner",
		Short: "Household food planning from the command line",
		Long: "Dinner keeps a household's inventory, shopping list, meal plan, and\n" +
			"recipes in a local or shared document store and keeps every view of\n" +
			"them in sync.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:       true,
		PersistentPreRunE:  attachStore,
		PersistentPostRunE: detachStore,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .dinner-db)")
	root.PersistentFlags().StringVar(&flags.user, "user", "", "user id (overrides config.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newInventoryCmd())
	root.AddCommand(newShopCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newRecipeCmd())
	root.AddCommand(newSearchCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		var coded *codedError
		if errors.As(err, &coded) {
			os.Exit(coded.code)
		}
		os.Exit(exitUserError)
	}
}

// skipAttach lists commands that manage the store themselves or need none.
func skipAttach(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "init", "help", "completion":
		return true
	}
	return false
}

// attachStore builds the logger, loads config, attaches the configured
// backend, and signs in the configured user.
func attachStore(cmd *cobra.Command, args []string) error {
	logger = newLogger(flags.debug)
	if skipAttach(cmd) {
		return nil
	}

	cfg, userID, err := resolveConfig()
	if err != nil {
		return sysError("load config: %w", err)
	}

	switch cfg.Backend {
	case types.BackendMongoDB:
		store = mongodb.NewStore()
	default:
		store = sqlite.NewStore()
	}
	if err := store.Attach(cfg); err != nil {
		store = nil
		return sysError("attach %s backend: %w", cfg.Backend, err)
	}

	session = appsync.NewSession(logger)
	session.SetUser(&types.User{ID: userID, EmailVerified: true})
	return nil
}

// detachStore closes the backend after the subcommand finishes.
func detachStore(cmd *cobra.Command, args []string) error {
	if store == nil {
		return nil
	}
	err := store.Detach()
	store = nil
	session = nil
	if err != nil {
		return sysError("detach backend: %w", err)
	}
	return nil
}

// newLogger builds a console logger on stderr so command output on stdout
// stays parseable.
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// currentUserID returns the signed-in user's id.
func currentUserID() (string, error) {
	if session == nil || !session.Authenticated() {
		return "", types.ErrNoUser
	}
	return session.Current().ID, nil
}

// codedError tags an error with the exit code Execute should use, so run
// hooks can report system failures without calling os.Exit themselves.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// sysError wraps a failure of the environment (config, storage) rather than
// of the user's input.
func sysError(format string, a ...any) error {
	return &codedError{code: exitSysError, err: fmt.Errorf(format, a...)}
}
