package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/reference"
)

func (a *app) referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect, validate, and load the EIA-860 lookup tables.",
	}

	show := &cobra.Command{
		Use:       "show [generator_status|energy_source|prime_mover]",
		Short:     "Print a lookup table.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{reference.GeneratorStatus, reference.EnergySource, reference.PrimeMover},
		RunE: func(_ *cobra.Command, args []string) error {
			set, err := reference.Load()
			if err != nil {
				return err
			}
			for _, t := range set.Tables() {
				if len(args) == 1 && args[0] != t.Name {
					continue
				}
				a.printReference(t)
			}
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the lookup tables and their cross references.",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, err := reference.Load()
			if err != nil {
				return err
			}
			violations := set.Validate()
			for _, v := range violations {
				fmt.Fprintln(a.out, v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d reference violations", len(violations))
			}
			fmt.Fprintln(a.out, "reference tables OK")
			return nil
		},
	}

	load := &cobra.Command{
		Use:   "load",
		Short: "Upsert the lookup tables into eia_generator_status, eia_energy_source, and eia_prime_mover.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := reference.Load()
			if err != nil {
				return err
			}
			if v := set.Validate(); len(v) > 0 {
				return errors.New("reference tables are invalid; run `switchctl reference validate`")
			}
			if err := a.guard().Confirm("upsert the EIA reference tables"); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), true, func(store *postgres.Store) error {
				counts, err := store.LoadReference(cmd.Context(), set)
				if err != nil {
					return err
				}
				for _, t := range set.Tables() {
					a.logger.Info("reference table loaded", "table", t.Name, "rows", counts[t.Name])
				}
				return nil
			})
		},
	}

	cmd.AddCommand(show, validate, load)
	return cmd
}

func (a *app) printReference(t *reference.Table) {
	fmt.Fprintln(a.out, t.Name)
	if t.Name != reference.EnergySource {
		table := a.table([]string{"Code", "Label", "Description"})
		for _, e := range t.Entries {
			table.Append([]string{e.Code, e.Label, e.Description})
		}
		table.Render()
		return
	}
	table := a.table([]string{"Code", "Label", "Description", "Unit", "Heat Low", "Heat High"})
	for _, e := range t.Entries {
		table.Append([]string{
			e.Code, e.Label, e.Description, e.Unit,
			strconv.FormatFloat(e.HeatLow, 'f', -1, 64),
			strconv.FormatFloat(e.HeatHigh, 'f', -1, 64),
		})
	}
	table.Render()
}
