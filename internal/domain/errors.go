package domain

import "errors"

var (
	// ErrCatalogNotFound indicates the catalog content could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrCatalogTooSmall indicates a loaded catalog cannot seed a four-option
	// question.
	ErrCatalogTooSmall = errors.New("catalog needs at least four items")
)
