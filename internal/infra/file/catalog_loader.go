package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kanjizoo/internal/domain"
)

// CatalogLoader reads catalog content from a YAML file on disk. The file
// holds a single catalog document:
//
//	id: animals
//	items:
//	  - symbol: 犬
//	    phonetic: いぬ
//	    meaning: dog
//	    picture: 🐕
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

func (l *CatalogLoader) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	var catalog domain.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("unmarshal catalog file: %w", err)
	}
	if catalog.ID != catalogID {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	if len(catalog.Items) < domain.MinCatalogSize {
		return domain.Catalog{}, domain.ErrCatalogTooSmall
	}
	return catalog, nil
}
