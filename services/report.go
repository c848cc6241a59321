package services

import (
	"fmt"
	"io"
	"strings"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// ReportService compares a dataset before and after imputation.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate builds one entry per column of the tables before imputation, plus
// one per column that imputation added. cl is the classification before
// imputation, so dropped listings columns keep their kind.
func (s *ReportService) Generate(runID string, before, after models.Dataset, cl *models.Classification) *models.MissingReport {
	report := &models.MissingReport{RunID: runID}
	pairs := [][2]*models.Table{
		{before.Calendar, after.Calendar},
		{before.Listings, after.Listings},
		{before.Reviews, after.Reviews},
	}
	for _, p := range pairs {
		b, a := p[0], p[1]
		for _, c := range b.Columns() {
			e := models.MissingEntry{
				Table:         b.Name,
				Column:        c.Name,
				Type:          c.Type.String(),
				RowsBefore:    len(c.Values),
				MissingBefore: c.MissingCount(),
			}
			if k, ok := cl.Get(c.Name); ok && b.Name == ListingsTable {
				e.Kind = k.String()
			}
			ac, err := a.Column(c.Name)
			if err != nil {
				e.Status = models.StatusDropped
			} else {
				e.Type = ac.Type.String()
				e.RowsAfter = len(ac.Values)
				e.MissingAfter = ac.MissingCount()
				e.Status = columnStatus(e.MissingBefore, e.MissingAfter)
			}
			report.Entries = append(report.Entries, e)
		}
		for _, c := range a.Columns() {
			if b.Has(c.Name) {
				continue
			}
			report.Entries = append(report.Entries, models.MissingEntry{
				Table:        a.Name,
				Column:       c.Name,
				Type:         c.Type.String(),
				RowsAfter:    len(c.Values),
				MissingAfter: c.MissingCount(),
				Status:       models.StatusAdded,
			})
		}
	}
	s.logger.Debug("[report] %d columns compared", len(report.Entries))
	return report
}

func columnStatus(before, after int) string {
	switch {
	case before == 0:
		return models.StatusComplete
	case after == 0:
		return models.StatusFilled
	case after < before:
		return models.StatusPartial
	default:
		return models.StatusUntouched
	}
}

// Print writes a console summary of the columns that had missing values.
func (s *ReportService) Print(w io.Writer, r *models.MissingReport) {
	sep := strings.Repeat("═", 72)
	thin := strings.Repeat("─", 72)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  MISSING DATA REPORT  run %s\033[0m\n", r.RunID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	before, after := r.Totals()
	fmt.Fprintf(w, "  Missing values before : \033[1m%d\033[0m\n", before)
	fmt.Fprintf(w, "  Missing values after  : \033[1m%d\033[0m\n\n", after)

	fmt.Fprintf(w, "  %-10s %-34s %8s %8s  %s\n", "table", "column", "before", "after", "status")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, e := range r.Entries {
		if e.MissingBefore == 0 && e.Status == models.StatusComplete {
			continue
		}
		fmt.Fprintf(w, "  %-10s %-34s %8d %8d  %s\n",
			e.Table, truncate(e.Column, 34), e.MissingBefore, e.MissingAfter, e.Status)
	}
	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
