package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

// DefaultEndpoint is the shop backend used when neither --endpoint nor
// STOREFRONT_ENDPOINT is set.
const DefaultEndpoint = "http://shop-roles.node.ed.asmer.org.ua/graphql"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Endpoint string
	Database string
	Timeout  time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storefront CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client",
		Long: `Browse the catalog, manage the session, and place orders against a
shop backend. The session token is kept in a local SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Endpoint, "endpoint", envOr("STOREFRONT_ENDPOINT", DefaultEndpoint), "GraphQL endpoint")
	flags.StringVar(&opts.Database, "db", envOr("STOREFRONT_DB", "storefront.db"), "path to the session database")
	flags.DurationVar(&opts.Timeout, "timeout", 15*time.Second, "timeout for each remote operation")

	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewCategoryCommand(opts))
	cmd.AddCommand(NewGoodCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewSandboxCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupLogging installs a text handler on w as the default logger.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
