package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

func mw(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func (a *app) compareCmd() *cobra.Command {
	var oldID, newID int
	var out string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare installed capacity by fuel and technology between two scenarios.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if oldID == 0 {
				oldID = a.cfg.SourceScenarioID
			}
			if newID == 0 {
				newID = a.cfg.DisaggregatedScenarioID
			}
			if out == "" {
				out = filepath.Join(a.cfg.OutputDir, fmt.Sprintf("capacity_comparison_%d_vs_%d.tab", newID, oldID))
			}
			return a.withStore(cmd.Context(), false, func(store *postgres.Store) error {
				oldRows, err := store.CapacityByEnergySource(cmd.Context(), oldID)
				if err != nil {
					return err
				}
				newRows, err := store.CapacityByEnergySource(cmd.Context(), newID)
				if err != nil {
					return err
				}
				diffs := domain.CompareScenarios(oldRows, newRows)

				header := []string{"energy_source", "gen_tech",
					fmt.Sprintf("capacity_mw_%d", newID), fmt.Sprintf("capacity_mw_%d", oldID), "diff_mw"}
				rows := make([][]string, len(diffs))
				for i, d := range diffs {
					oldMW, diff := "", ""
					if d.HasOld {
						oldMW, diff = mw(d.OldMW), mw(d.DiffMW)
					}
					rows[i] = []string{d.EnergySource, d.GenTech, mw(d.NewMW), oldMW, diff}
				}
				if err := tabfile.Write(out, header, rows); err != nil {
					return err
				}
				table := a.table(header)
				table.AppendBulk(rows)
				table.Render()
				a.logger.Info("scenario comparison written", "path", out, "rows", len(rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&oldID, "old", 0, "baseline scenario (default SOURCE_SCENARIO_ID)")
	cmd.Flags().IntVar(&newID, "new", 0, "scenario to compare (default SCENARIO_ID)")
	cmd.Flags().StringVar(&out, "out", "", "TSV output path")
	return cmd
}

func (a *app) pullCmd() *cobra.Command {
	var scenarios []int
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Summarize the thermal fleet of scenarios: plants, GW, and weighted heat rate.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(scenarios) == 0 {
				scenarios = []int{a.cfg.DisaggregatedScenarioID, a.cfg.AggregatedScenarioID}
			}
			return a.withStore(cmd.Context(), false, func(store *postgres.Store) error {
				table := a.table([]string{"Scenario", "Plants", "Capacity (GW)", "Weighted Heat Rate"})
				for _, id := range scenarios {
					s, err := store.PullScenario(cmd.Context(), id)
					if err != nil {
						return err
					}
					table.Append([]string{
						strconv.Itoa(s.ScenarioID), strconv.Itoa(s.Plants),
						strconv.FormatFloat(s.CapacityGW, 'f', 3, 64),
						strconv.FormatFloat(s.WeightedHeatRate, 'f', 3, 64),
					})
				}
				table.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&scenarios, "scenario", nil, "scenario ids (default SCENARIO_ID and AGGREGATED_SCENARIO_ID)")
	return cmd
}

func (a *app) varcfCmd() *cobra.Command {
	var scenarios []int
	var zones, concurrency int
	cmd := &cobra.Command{
		Use:   "varcf",
		Short: "Assign load-zone average capacity factor profiles to wind and solar plants.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(scenarios) == 0 {
				scenarios = []int{a.cfg.DisaggregatedScenarioID, a.cfg.AggregatedScenarioID}
			}
			if err := a.guard().Confirm(fmt.Sprintf("replace variable capacity factors of scenarios %v", scenarios)); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), false, func(store *postgres.Store) error {
				n, err := store.AssignVariableCapacityFactors(cmd.Context(), postgres.VarCFOptions{
					Scenarios:   scenarios,
					LoadZones:   zones,
					Concurrency: concurrency,
				})
				if err != nil {
					return err
				}
				a.logger.Info("variable capacity factors assigned", "scenarios", scenarios, "rows", n)
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&scenarios, "scenario", nil, "scenario ids (default SCENARIO_ID and AGGREGATED_SCENARIO_ID)")
	cmd.Flags().IntVar(&zones, "load-zones", 50, "process load zones 1..N")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "concurrent zone statements")
	return cmd
}

func (a *app) cleanupCmd() *cobra.Command {
	var scenarios []int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove fuel cells, fill OT/Gas heat rates, null NaNs, and zero missing connect costs.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(scenarios) == 0 {
				scenarios = []int{a.cfg.DisaggregatedScenarioID, a.cfg.AggregatedScenarioID}
			}
			if err := a.guard().Confirm(fmt.Sprintf("run post-load cleanup on scenarios %v", scenarios)); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), false, func(store *postgres.Store) error {
				res, err := store.Cleanup(cmd.Context(), scenarios)
				if err != nil {
					return err
				}
				table := a.table([]string{"Step", "Rows"})
				table.AppendBulk([][]string{
					{"fuel cells removed", strconv.FormatInt(res.FuelCellsRemoved, 10)},
					{"OT/Gas heat rates set", strconv.FormatInt(res.OtherHeatRates, 10)},
					{"NaNs nulled", strconv.FormatInt(res.NaNsNulled, 10)},
					{"connect costs zeroed", strconv.FormatInt(res.ConnectCostZeroed, 10)},
				})
				table.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&scenarios, "scenario", nil, "scenario ids (default SCENARIO_ID and AGGREGATED_SCENARIO_ID)")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the switch tables in a development database.",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.guard().Confirm("apply switch schema migrations"); err != nil {
				return err
			}
			if err := postgres.Migrate(a.cfg.DatabaseURL); err != nil {
				return err
			}
			a.logger.Info("migrations applied")
			return nil
		},
	}
}

func (a *app) solarCheckCmd() *cobra.Command {
	var scenario int
	cmd := &cobra.Command{
		Use:   "solar-check",
		Short: "Check PV capacity factors are near zero at night and positive at midday.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scenario == 0 {
				scenario = a.cfg.DisaggregatedScenarioID
			}
			return a.withStore(cmd.Context(), false, func(store *postgres.Store) error {
				profile, err := store.SolarHourlyProfile(cmd.Context(), scenario)
				if err != nil {
					return err
				}
				if len(profile) == 0 {
					return fmt.Errorf("scenario %d has no PV capacity factors", scenario)
				}
				violations := domain.CheckSolarProfile(profile)
				bad := make(map[int]string, len(violations))
				for _, v := range violations {
					bad[v.PacificHour] = v.Reason
				}

				table := a.table([]string{"Pacific Hour", "Average", "Samples", "Violation"})
				for _, h := range profile {
					table.Append([]string{
						fmt.Sprintf("%02d", h.PacificHour),
						strconv.FormatFloat(h.Average, 'f', 4, 64),
						strconv.FormatInt(h.Samples, 10),
						bad[h.PacificHour],
					})
				}
				table.Render()
				if len(violations) > 0 {
					for _, v := range violations {
						fmt.Fprintln(a.out, v)
					}
					return errors.New("solar capacity factor check failed")
				}
				fmt.Fprintln(a.out, "solar capacity factor check passed")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&scenario, "scenario", 0, "plant scenario (default SCENARIO_ID)")
	return cmd
}
