package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"airbnb-cleaner/models"
)

// LoadClassificationSeed reads the hand-maintained YAML file mapping each kind
// tag to its listings columns.
func LoadClassificationSeed(path string) (*models.Classification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classification seed: %w", err)
	}
	return ParseClassificationSeed(data)
}

// ParseClassificationSeed parses seed YAML. A column listed under two kinds is
// rejected since every column has exactly one kind.
func ParseClassificationSeed(data []byte) (*models.Classification, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("classification seed: %w", err)
	}

	byKind := make(map[models.Kind][]string, len(raw))
	for tag, cols := range raw {
		k, err := models.ParseKind(tag)
		if err != nil {
			return nil, fmt.Errorf("classification seed: %w", err)
		}
		byKind[k] = cols
	}

	cl := models.NewClassification()
	for _, k := range models.Kinds {
		for _, col := range byKind[k] {
			if prev, ok := cl.Get(col); ok {
				return nil, fmt.Errorf("classification seed: column %q listed as %s and %s", col, prev, k)
			}
			cl.Set(col, k)
		}
	}
	return cl, nil
}

// ColumnsByKind returns the columns of t classified as kind, in table order.
func ColumnsByKind(cl *models.Classification, t *models.Table, kind models.Kind) []string {
	out := []string{}
	for _, name := range t.Names() {
		if k, ok := cl.Get(name); ok && k == kind {
			out = append(out, name)
		}
	}
	return out
}

// CheckClassification fails when the classification names a column t lacks.
func CheckClassification(cl *models.Classification, t *models.Table) error {
	for _, col := range cl.Columns() {
		if !t.Has(col) {
			return fmt.Errorf("classification: %s.%s: %w", t.Name, col, models.ErrColumnNotFound)
		}
	}
	return nil
}
