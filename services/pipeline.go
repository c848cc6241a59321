package services

import (
	"fmt"

	"airbnb-cleaner/config"
	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// Table names of the dataset, also used as snapshot table names.
const (
	CalendarTable = "calendar"
	ListingsTable = "listings"
	ReviewsTable  = "reviews"
)

// TableStore loads raw tables and keeps typed snapshots between stages.
type TableStore interface {
	ReadRaw(path, name string) (*models.Table, error)
	SaveTables(path string, tables ...*models.Table) error
	LoadTables(path string) ([]*models.Table, error)
	SaveClassification(path string, cl *models.Classification) error
	LoadClassification(path string) (*models.Classification, error)
	Exists(path string) bool
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	RunID string
	// SaveIntermediate persists the normalized and filled tables to the interim dir.
	SaveIntermediate bool
	// Seed is the classification used when none has been persisted yet.
	Seed   *models.Classification
	Impute ImputeConfig
}

// Result holds what a full run produced.
type Result struct {
	Normalized     models.Dataset
	Filled         models.Dataset
	Classification *models.Classification
	Report         *models.MissingReport
}

// Pipeline sequences loading, normalization and imputation.
type Pipeline struct {
	store      TableStore
	opts       PipelineOptions
	logger     *utils.Logger
	normalizer *Normalizer
	imputer    *Imputer
	reports    *ReportService
}

// NewPipeline creates a Pipeline.
func NewPipeline(store TableStore, opts PipelineOptions, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		opts:       opts,
		logger:     logger,
		normalizer: NewNormalizer(logger),
		imputer:    NewImputer(opts.Impute, logger),
		reports:    NewReportService(logger),
	}
}

// Run turns the raw CSV files into the final snapshot.
func (p *Pipeline) Run(paths config.CityPaths) (*Result, error) {
	p.logger.Info("[pipeline] Run %s: loading raw tables", p.opts.RunID)
	raw, err := p.LoadRaw(paths)
	if err != nil {
		return nil, err
	}

	p.logger.Info("[pipeline] Normalizing column types")
	normalized, err := p.Normalize(raw, paths)
	if err != nil {
		return nil, err
	}

	cl, err := p.Classification(paths)
	if err != nil {
		return nil, err
	}

	p.logger.Info("[pipeline] Filling missing values")
	filled, filledCl, err := p.FillMissing(normalized, cl, paths)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveTables(paths.Final, filled.Tables()...); err != nil {
		return nil, fmt.Errorf("pipeline: save final tables: %w", err)
	}
	p.logger.Info("[pipeline] Final tables saved to %s", paths.Final)

	return &Result{
		Normalized:     normalized,
		Filled:         filled,
		Classification: filledCl,
		Report:         p.reports.Generate(p.opts.RunID, normalized, filled, p.reportKinds(cl)),
	}, nil
}

// reportKinds is the pre-fill classification, completed from the seed for
// columns an earlier run already dropped from the persisted one.
func (p *Pipeline) reportKinds(cl *models.Classification) *models.Classification {
	if p.opts.Seed == nil {
		return cl
	}
	out := cl.Clone()
	for _, col := range p.opts.Seed.Columns() {
		if _, ok := out.Get(col); !ok {
			k, _ := p.opts.Seed.Get(col)
			out.Set(col, k)
		}
	}
	return out
}

// LoadRaw reads the three raw CSV files.
func (p *Pipeline) LoadRaw(paths config.CityPaths) (models.Dataset, error) {
	var ds models.Dataset
	var err error
	if ds.Calendar, err = p.store.ReadRaw(paths.Calendar, CalendarTable); err != nil {
		return models.Dataset{}, err
	}
	if ds.Listings, err = p.store.ReadRaw(paths.Listings, ListingsTable); err != nil {
		return models.Dataset{}, err
	}
	if ds.Reviews, err = p.store.ReadRaw(paths.Reviews, ReviewsTable); err != nil {
		return models.Dataset{}, err
	}
	p.logger.Debug("[pipeline] raw rows: calendar %d, listings %d, reviews %d",
		ds.Calendar.Len(), ds.Listings.Len(), ds.Reviews.Len())
	return ds, nil
}

// Normalize converts the raw tables and optionally persists the result.
func (p *Pipeline) Normalize(ds models.Dataset, paths config.CityPaths) (models.Dataset, error) {
	out, err := p.normalizer.Normalize(ds)
	if err != nil {
		return models.Dataset{}, err
	}
	if p.opts.SaveIntermediate {
		if err := p.store.SaveTables(paths.Normalized, out.Tables()...); err != nil {
			return models.Dataset{}, fmt.Errorf("pipeline: save normalized tables: %w", err)
		}
		p.logger.Debug("[pipeline] normalized tables saved to %s", paths.Normalized)
	}
	return out, nil
}

// Classification returns the persisted classification, creating it from the
// seed on first use.
func (p *Pipeline) Classification(paths config.CityPaths) (*models.Classification, error) {
	if p.store.Exists(paths.Classification) {
		cl, err := p.store.LoadClassification(paths.Classification)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("[pipeline] loaded classification of %d columns", cl.Len())
		return cl, nil
	}

	if p.opts.Seed == nil {
		return nil, fmt.Errorf("pipeline: no classification at %s and no seed given", paths.Classification)
	}
	cl := p.opts.Seed.Clone()
	if err := p.store.SaveClassification(paths.Classification, cl); err != nil {
		return nil, fmt.Errorf("pipeline: save classification: %w", err)
	}
	p.logger.Info("[pipeline] Classification of %d columns created from seed", cl.Len())
	return cl, nil
}

// FillMissing imputes the dataset, saves the updated classification and
// optionally persists the filled tables.
func (p *Pipeline) FillMissing(ds models.Dataset, cl *models.Classification, paths config.CityPaths) (models.Dataset, *models.Classification, error) {
	filled, cl, err := p.imputer.FillMissing(ds, cl)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	if err := p.store.SaveClassification(paths.Classification, cl); err != nil {
		return models.Dataset{}, nil, fmt.Errorf("pipeline: save classification: %w", err)
	}
	if p.opts.SaveIntermediate {
		if err := p.store.SaveTables(paths.Filled, filled.Tables()...); err != nil {
			return models.Dataset{}, nil, fmt.Errorf("pipeline: save filled tables: %w", err)
		}
	}
	return filled, cl, nil
}

// LoadProcessed reads the final tables of a city back from the processed dir.
func LoadProcessed(store TableStore, processedDir, city string) (models.Dataset, error) {
	tables, err := store.LoadTables(config.FinalPath(processedDir, city))
	if err != nil {
		return models.Dataset{}, err
	}
	return DatasetFromTables(tables)
}

// DatasetFromTables picks the calendar, listings and reviews tables by name.
func DatasetFromTables(tables []*models.Table) (models.Dataset, error) {
	var ds models.Dataset
	for _, t := range tables {
		switch t.Name {
		case CalendarTable:
			ds.Calendar = t
		case ListingsTable:
			ds.Listings = t
		case ReviewsTable:
			ds.Reviews = t
		}
	}
	if ds.Calendar == nil || ds.Listings == nil || ds.Reviews == nil {
		return models.Dataset{}, fmt.Errorf("pipeline: snapshot is missing one of %s, %s, %s",
			CalendarTable, ListingsTable, ReviewsTable)
	}
	return ds, nil
}
