// Command genmock writes a synthetic set of EIA forms laid out the way
// eia.gov publishes them, so the pipeline can run offline against any
// static file server rooted at -out.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -start 2016 -end 2018
//	python3 -m http.server -d data/mock 8000 &
//	EIA860_BASE_URL=http://localhost:8000/eia860 \
//	EIA923_BASE_URL=http://localhost:8000/eia923 \
//	EIA860M_BASE_URL=http://localhost:8000/eia860m \
//	START_YEAR=2016 END_YEAR=2018 go run ./cmd/etl -once
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/eia/eiatest"
)

// fixtureHost only anchors the published URL layout; files land under -out.
const fixtureHost = "http://fixtures"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	start := flag.Int("start", 2016, "first form year")
	end := flag.Int("end", 2018, "last form year")
	month := flag.String("month", "may", "EIA-860M month")
	flag.Parse()

	if *end < *start {
		return fmt.Errorf("-end %d is before -start %d", *end, *start)
	}

	cfg := &config.Config{
		StartYear:      *start,
		EndYear:        *end,
		EndMonth:       *month,
		Latest860Year:  *end,
		Latest923Year:  *end + 1,
		EIA860BaseURL:  fixtureHost + "/eia860",
		EIA923BaseURL:  fixtureHost + "/eia923",
		EIA860MBaseURL: fixtureHost + "/eia860m",
	}

	for _, src := range eia.Sources(cfg) {
		dir, err := fixtureDir(*out, src.URL)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		var path string
		switch src.Form {
		case eia.Form860:
			path, err = eiatest.Write860(dir, eiatest.Sample(src.Year))
		case eia.Form923:
			path, err = eiatest.Write923(dir, eiatest.Sample(src.Year))
		case eia.Form860M:
			path, err = eiatest.Write860M(dir, cfg.EndMonth, eia.RetiredInventoryYear(src.Year), eiatest.SampleRetired(src.Year))
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", src.Name, err)
		}
		log.Printf("%s %d: %s", src.Form, src.Year, path)
	}

	log.Printf("wrote fixtures for %d-%d under %s", *start, *end, *out)
	return nil
}

// fixtureDir maps a source URL to its directory under out.
func fixtureDir(out, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return filepath.Join(out, filepath.FromSlash(filepath.Dir(u.Path))), nil
}
