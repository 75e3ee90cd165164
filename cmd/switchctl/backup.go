package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/backup"
)

func (a *app) backupCmd() *cobra.Command {
	var prefix string
	var tables []string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and verify backup copies of the loader tables.",
	}
	cmd.PersistentFlags().StringVar(&prefix, "prefix", "", "backup table prefix (default BACKUP_TABLE_PREFIX)")
	cmd.PersistentFlags().StringSliceVar(&tables, "table", nil, "tables to back up (default: every table the loader writes)")

	resolve := func() (string, []string) {
		p := prefix
		if p == "" {
			p = a.cfg.BackupPrefix
		}
		if len(tables) == 0 {
			return p, postgres.LoaderTables
		}
		return p, tables
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Replace each backup table with a fresh copy of its source.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, ts := resolve()
			return a.withStore(cmd.Context(), true, func(store *postgres.Store) error {
				done, err := backup.Provision(cmd.Context(), store, a.guard(), p, ts, a.logger)
				table := a.table([]string{"Table", "Backup", "Rows"})
				for _, r := range done {
					table.Append([]string{r.Table, r.Backup, strconv.FormatInt(r.Rows, 10)})
				}
				table.Render()
				if errors.Is(err, backup.ErrAborted) {
					a.logger.Warn("backup aborted", "copied", len(done), "remaining", len(ts)-len(done))
				}
				return err
			})
		},
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Compare columns, indexes, and row counts of each table with its backup.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, ts := resolve()
			return a.withStore(cmd.Context(), true, func(store *postgres.Store) error {
				reports, err := backup.Verify(cmd.Context(), store, p, ts)
				if err != nil {
					return err
				}
				return a.printReports(reports)
			})
		},
	}

	cmd.AddCommand(create, verify)
	return cmd
}

func (a *app) printReports(reports []backup.Report) error {
	table := a.table([]string{"Table", "Backup", "Source Rows", "Backup Rows", "Status"})
	failed := 0
	for _, r := range reports {
		status := "OK"
		if !r.OK() {
			failed++
			status = strings.Join(r.Problems, "\n")
		}
		table.Append([]string{
			r.Table, r.Backup,
			strconv.FormatInt(r.SourceRows, 10),
			strconv.FormatInt(r.BackupRows, 10),
			status,
		})
	}
	table.Render()
	if failed > 0 {
		return fmt.Errorf("%d of %d backups differ from their source", failed, len(reports))
	}
	return nil
}

func (a *app) activityCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List running statements and flag backends touching the same loader table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prefix == "" {
				prefix = a.cfg.BackupPrefix
			}
			return a.withStore(cmd.Context(), true, func(store *postgres.Store) error {
				backends, err := store.Activity(cmd.Context())
				if err != nil {
					return err
				}
				backends = backup.FlagInterference(backends, prefix, postgres.LoaderTables)

				table := a.table([]string{"PID", "User", "State", "Running", "Tables", "Interferes", "Query"})
				conflicts := 0
				for _, b := range backends {
					flag := ""
					if b.Interferes {
						conflicts++
						flag = "YES"
					}
					table.Append([]string{
						strconv.Itoa(int(b.PID)), b.User, b.State, b.Running.Round(time.Second).String(),
						strings.Join(b.Tables, ","), flag, truncate(b.Query, 80),
					})
				}
				table.Render()
				if conflicts > 0 {
					a.logger.Warn("concurrent statements on the same table", "backends", conflicts)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "backup table prefix (default BACKUP_TABLE_PREFIX)")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
