// Command switchctl is the operator tool for switch_wecc: reference tables,
// backup tables, activity monitoring, scenario reports, and the post-load
// maintenance steps. Steps that write to the database ask for confirmation
// unless --yes is given.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/backup"
	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries what every subcommand needs.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	newLogger func(*config.Config) *slog.Logger
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	yes       bool
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	_ = godotenv.Load()

	a := &app{in: in, out: out, errOut: errOut, newLogger: observability.NewLogger}
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	root := &cobra.Command{
		Use:           "switchctl",
		Short:         "Operator tool for the switch_wecc generation tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = a.newLogger(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "skip confirmation prompts")
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.AddCommand(
		a.referenceCmd(),
		a.backupCmd(),
		a.activityCmd(),
		a.compareCmd(),
		a.pullCmd(),
		a.varcfCmd(),
		a.cleanupCmd(),
		a.migrateCmd(),
		a.solarCheckCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

// guard returns the confirmation guard for destructive steps.
func (a *app) guard() *backup.Guard {
	return backup.NewGuard(a.in, a.out, a.yes, a.logger)
}

// openStore connects to switch_wecc. Loader tables are addressed through
// the backup prefix when USE_BACKUP_TABLES is set, unless raw is true.
func (a *app) openStore(ctx context.Context, raw bool) (*postgres.Store, error) {
	prefix := a.cfg.TablePrefix()
	if raw {
		prefix = ""
	}
	return postgres.Open(ctx, postgres.Options{
		URL:    a.cfg.DatabaseURL,
		Schema: a.cfg.Schema,
		Prefix: prefix,
		Logger: a.logger,
	})
}

// withStore opens a store for the duration of fn.
func (a *app) withStore(ctx context.Context, raw bool, fn func(*postgres.Store) error) error {
	store, err := a.openStore(ctx, raw)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (a *app) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.out)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}
