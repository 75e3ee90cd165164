package domain

import "strings"

// stateAbbreviations maps US state names, as stored in the GIS state table,
// to USPS codes.
var stateAbbreviations = map[string]string{
	"Alabama":        "AL",
	"Alaska":         "AK",
	"Arizona":        "AZ",
	"Arkansas":       "AR",
	"California":     "CA",
	"Colorado":       "CO",
	"Connecticut":    "CT",
	"Delaware":       "DE",
	"Florida":        "FL",
	"Georgia":        "GA",
	"Hawaii":         "HI",
	"Idaho":          "ID",
	"Illinois":       "IL",
	"Indiana":        "IN",
	"Iowa":           "IA",
	"Kansas":         "KS",
	"Kentucky":       "KY",
	"Louisiana":      "LA",
	"Maine":          "ME",
	"Maryland":       "MD",
	"Massachusetts":  "MA",
	"Michigan":       "MI",
	"Minnesota":      "MN",
	"Mississippi":    "MS",
	"Missouri":       "MO",
	"Montana":        "MT",
	"Nebraska":       "NE",
	"Nevada":         "NV",
	"New Hampshire":  "NH",
	"New Jersey":     "NJ",
	"New Mexico":     "NM",
	"New York":       "NY",
	"North Carolina": "NC",
	"North Dakota":   "ND",
	"Ohio":           "OH",
	"Oklahoma":       "OK",
	"Oregon":         "OR",
	"Pennsylvania":   "PA",
	"Rhode Island":   "RI",
	"South Carolina": "SC",
	"South Dakota":   "SD",
	"Tennessee":      "TN",
	"Texas":          "TX",
	"Utah":           "UT",
	"Vermont":        "VT",
	"Virginia":       "VA",
	"Washington":     "WA",
	"West Virginia":  "WV",
	"Wisconsin":      "WI",
	"Wyoming":        "WY",
}

// StateAbbreviation returns the USPS code for a state name. Names without a
// code, such as territories, are returned unchanged.
func StateAbbreviation(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := stateAbbreviations[name]; ok {
		return code
	}
	return name
}
