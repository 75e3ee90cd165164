package eia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
)

func TestFileNames(t *testing.T) {
	assert.Equal(t, "eia8602018.zip", FileName860(2018))
	assert.Equal(t, "f923_2008.zip", FileName923(2008))
	assert.Equal(t, "f906920_2007.zip", FileName923(2007))
	assert.Equal(t, "may_generator2020.xlsx", FileName860M("may", 2020))
}

func TestSources(t *testing.T) {
	cfg := &config.Config{
		StartYear: 2017, EndYear: 2018, EndMonth: "may",
		Latest860Year: 2018, Latest923Year: 2019,
		EIA860BaseURL:  "https://eia.test/eia860",
		EIA923BaseURL:  "https://eia.test/eia923",
		EIA860MBaseURL: "https://eia.test/eia860m",
	}

	got := Sources(cfg)

	require.Len(t, got, 5)
	assert.Equal(t, Source{Form: Form860, Year: 2017, Name: "eia8602017.zip", URL: "https://eia.test/eia860/archive/xls/eia8602017.zip"}, got[0])
	assert.Equal(t, "https://eia.test/eia860/xls/eia8602018.zip", got[1].URL)
	assert.Equal(t, "https://eia.test/eia923/archive/xls/f923_2018.zip", got[3].URL)
	assert.Equal(t, Source{Form: Form860M, Year: 2018, Name: "may_generator2020.xlsx", URL: "https://eia.test/eia860m/xls/may_generator2020.xlsx"}, got[4])
}
