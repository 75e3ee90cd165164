package eiatest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

var plantHeader = []string{
	"Utility ID", "Utility Name", "Plant Code", "Plant Name", "State", "County",
	"Latitude", "Longitude", "NERC Region", "Balancing Authority Name",
	"Grid Voltage (kV)", "Regulatory Status",
}

var generatorHeader = []string{
	"Utility ID", "Plant Code", "Plant Name", "State", "County", "Generator ID",
	"Unit Code", "Prime Mover", "Status", "Nameplate Capacity (MW)",
	"Minimum Load (MW)", "Operating Year", "Planned Retirement Year",
	"Energy Source 1", "Energy Source 2", "Energy Source 3",
	"Time from Cold Shutdown to Full Load", "Carbon Capture Technology?",
	"Associated with Combined Heat and Power System",
}

var proposedHeader = []string{
	"Utility ID", "Plant Code", "Plant Name", "State", "County", "Generator ID",
	"Unit Code", "Prime Mover", "Status", "Nameplate Capacity (MW)",
	"Current Year", "Energy Source 1",
}

var retiredHeader = []string{
	"Entity ID", "Entity Name", "Plant ID", "Plant Name", "Plant State", "County",
	"Generator ID", "Nameplate Capacity (MW)", "Technology", "Prime Mover Code",
	"Energy Source Code", "Operating Year", "Retirement Month", "Retirement Year",
}

func generationHeader() []string {
	h := []string{"Plant Id", "Plant Name", "Plant State", "Reported Prime Mover", "Reported Fuel Type Code"}
	for _, prefix := range []string{"Elec_Quantity", "Elec_MMBtu", "Netgen"} {
		for _, m := range domain.MonthNames {
			h = append(h, prefix+"\n"+m)
		}
	}
	return h
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func plantRow(p domain.Generator) []string {
	lat, lon := "", ""
	if p.HasLocation {
		lat, lon = ftoa(p.Latitude), ftoa(p.Longitude)
	}
	return []string{
		itoa(p.UtilityID), "Utility " + itoa(p.UtilityID), itoa(p.PlantCode), p.PlantName,
		p.State, p.County, lat, lon, p.NercRegion, p.BalancingAuthority,
		ftoa(p.GridVoltageKV), p.RegulatoryStatus,
	}
}

func generatorRow(g domain.Generator) []string {
	return []string{
		itoa(g.UtilityID), itoa(g.PlantCode), g.PlantName, g.State, g.County, g.GeneratorID,
		g.UnitCode, g.PrimeMover, g.Status, ftoa(g.NameplateMW), ftoa(g.MinimumLoadMW),
		itoa(g.OperatingYear), itoa(g.PlannedRetirementYear), g.EnergySource,
		g.EnergySource2, g.EnergySource3, g.ColdStartTime, g.CarbonCapture, g.Cogen,
	}
}

func proposedRow(g domain.Generator) []string {
	return []string{
		itoa(g.UtilityID), itoa(g.PlantCode), g.PlantName, g.State, g.County, g.GeneratorID,
		g.UnitCode, g.PrimeMover, g.Status, ftoa(g.NameplateMW), itoa(g.OperatingYear),
		g.EnergySource,
	}
}

func generationRow(r domain.GenerationRecord) []string {
	row := []string{itoa(r.PlantCode), r.PlantName, r.State, r.PrimeMover, r.EnergySource}
	for _, series := range []domain.Monthly{r.ElecQuantity, r.ElecMMBtu, r.NetGen} {
		for _, v := range series {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return row
}

func retiredRow(r domain.RetiredGenerator) []string {
	return []string{
		itoa(r.EntityID), "Entity " + itoa(r.EntityID), itoa(r.PlantCode), r.PlantName,
		r.State, r.County, r.GeneratorID, ftoa(r.NameplateMW), r.Technology,
		r.PrimeMover, r.EnergySource, itoa(r.OperatingYear), itoa(r.RetirementMonth),
		itoa(r.RetirementYear),
	}
}

func rows[T any](items []T, f func(T) []string) [][]string {
	out := make([][]string, len(items))
	for i, it := range items {
		out[i] = f(it)
	}
	return out
}

// Write860 writes eia860{year}.zip into dir. Years before 2009 use the
// separate GenY and PRGenY workbooks; earlier than 2011 have no title row.
func Write860(dir string, d Dataset) (string, error) {
	preamble := 1
	if d.Year <= 2010 {
		preamble = 0
	}
	tmp, err := os.MkdirTemp("", "eia860")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	existing := Sheet{Name: "Operable", Preamble: preamble, Header: generatorHeader, Rows: rows(d.Existing, generatorRow)}
	proposed := Sheet{Name: "Proposed", Preamble: preamble, Header: proposedHeader, Rows: rows(d.Proposed, proposedRow)}
	plants := Sheet{Name: "Plant", Preamble: preamble, Header: plantHeader, Rows: rows(d.Plants, plantRow)}

	var files []string
	write := func(name string, sheets ...Sheet) error {
		path := filepath.Join(tmp, name)
		files = append(files, path)
		return WriteWorkbook(path, sheets...)
	}
	yy := d.Year % 100
	if d.Year >= 2009 {
		err = write(fmt.Sprintf("2___Plant_Y%d.xlsx", d.Year), plants)
		if err == nil {
			err = write(fmt.Sprintf("3_1_Generator_Y%d.xlsx", d.Year), existing, proposed)
		}
	} else {
		err = write(fmt.Sprintf("PlantY%02d.xlsx", yy), plants)
		if err == nil {
			err = write(fmt.Sprintf("GenY%02d.xlsx", yy), existing)
		}
		if err == nil {
			err = write(fmt.Sprintf("PRGenY%02d.xlsx", yy), proposed)
		}
	}
	if err != nil {
		return "", err
	}
	return zipTo(dir, fmt.Sprintf("eia860%d.zip", d.Year), files)
}

// Write923 writes the EIA-923 archive for the dataset year into dir. The
// archive also holds a smaller schedule 8 workbook, as published.
func Write923(dir string, d Dataset) (string, error) {
	preamble := 5
	if d.Year < 2011 {
		preamble = 7
	}
	tmp, err := os.MkdirTemp("", "eia923")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	page1 := filepath.Join(tmp, fmt.Sprintf("EIA923_Schedules_2_3_4_5_M_12_%d_Final.xlsx", d.Year))
	err = WriteWorkbook(page1, Sheet{
		Name:     "Page 1 Generation and Fuel Data",
		Preamble: preamble,
		Header:   generationHeader(),
		Rows:     rows(d.Generation, generationRow),
	})
	if err != nil {
		return "", err
	}
	env := filepath.Join(tmp, fmt.Sprintf("EIA923_Schedule_8_Annual_Environmental_Information_%d.xlsx", d.Year))
	if err := WriteWorkbook(env, Sheet{Name: "8A", Header: []string{"Plant Id"}}); err != nil {
		return "", err
	}

	name := fmt.Sprintf("f923_%d.zip", d.Year)
	if d.Year < 2008 {
		name = fmt.Sprintf("f906920_%d.zip", d.Year)
	}
	return zipTo(dir, name, []string{page1, env})
}

// Write860M writes the monthly inventory workbook into dir with operating,
// planned, and retired sheets.
func Write860M(dir, month string, inventoryYear int, retired []domain.RetiredGenerator) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_generator%d.xlsx", month, inventoryYear))
	err := WriteWorkbook(path,
		Sheet{Name: "Operating", Preamble: 1, Header: retiredHeader},
		Sheet{Name: "Planned", Preamble: 1, Header: retiredHeader},
		Sheet{Name: "Retired", Preamble: 1, Header: retiredHeader, Rows: rows(retired, retiredRow)},
	)
	return path, err
}

func zipTo(dir, name string, files []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	archive := filepath.Join(dir, name)
	return archive, Zip(archive, files...)
}
