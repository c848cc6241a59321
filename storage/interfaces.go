package storage

import "airbnb-cleaner/models"

// TableWriter is the interface any export backend for the final tables must satisfy.
type TableWriter interface {
	WriteTables(tables ...*models.Table) error
	Close() error
}
