package config

import "path/filepath"

// Data directory layout, relative to Config.DataDir.
const (
	RawSubdir       = "raw"
	InterimSubdir   = "interim"
	ProcessedSubdir = "processed"
)

func (c *Config) RawDir() string       { return filepath.Join(c.DataDir, RawSubdir) }
func (c *Config) InterimDir() string   { return filepath.Join(c.DataDir, InterimSubdir) }
func (c *Config) ProcessedDir() string { return filepath.Join(c.DataDir, ProcessedSubdir) }

// CityPaths locates every file the pipeline reads or writes for one city.
type CityPaths struct {
	Calendar string
	Listings string
	Reviews  string

	Normalized     string
	Filled         string
	Classification string

	Final string
}

// PathsFor lays out the files of city under the raw, interim and processed dirs.
func PathsFor(rawDir, interimDir, processedDir, city string) CityPaths {
	raw := filepath.Join(rawDir, city)
	interim := filepath.Join(interimDir, city)
	return CityPaths{
		Calendar:       filepath.Join(raw, "calendar.csv"),
		Listings:       filepath.Join(raw, "listings.csv"),
		Reviews:        filepath.Join(raw, "reviews.csv"),
		Normalized:     filepath.Join(interim, "normalized.db"),
		Filled:         filepath.Join(interim, "filled.db"),
		Classification: filepath.Join(interim, "listings_cols.db"),
		Final:          FinalPath(processedDir, city),
	}
}

// FinalPath is the consumer-facing snapshot of the processed tables.
func FinalPath(processedDir, city string) string {
	return filepath.Join(processedDir, city, "dataset.db")
}
