// Package seed loads catalog fixtures (ingredients, tags) into the store.
package seed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// =============================================================================
// Fixture Types
// =============================================================================

type ingredientFixture struct {
	Name            string `json:"name" yaml:"name"`
	MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit"`
}

type tagFixture struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Result summarizes a fixture load.
type Result struct {
	Created int
	Skipped int // Rows already present
}

// =============================================================================
// Ingredients
// =============================================================================

// LoadIngredients reads an ingredient fixture file and inserts the rows.
// The format is chosen by extension: .json expects a list of
// {"name", "measurement_unit"} objects, .csv expects name,unit rows.
// Rows already in the catalog are skipped.
func LoadIngredients(ctx context.Context, s store.Store, path string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer f.Close()

	var fixtures []ingredientFixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		fixtures, err = parseIngredientsJSON(f)
	case ".csv":
		fixtures, err = parseIngredientsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q (want .json or .csv)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	result := &Result{}
	for _, fx := range fixtures {
		if fx.Name == "" || fx.MeasurementUnit == "" {
			return nil, fmt.Errorf("fixture row missing name or measurement_unit: %+v", fx)
		}
		ing := &domain.Ingredient{Name: fx.Name, MeasurementUnit: fx.MeasurementUnit}
		if err := s.CreateIngredient(ctx, ing); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("insert ingredient %q: %w", fx.Name, err)
		}
		result.Created++
	}

	logger.Info("loaded ingredients",
		"file", path,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

func parseIngredientsJSON(r io.Reader) ([]ingredientFixture, error) {
	var fixtures []ingredientFixture
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func parseIngredientsCSV(r io.Reader) ([]ingredientFixture, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var fixtures []ingredientFixture
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return fixtures, nil
		}
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, ingredientFixture{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		})
	}
}

// =============================================================================
// Tags
// =============================================================================

// LoadTags reads a YAML tag fixture (a list of {name, slug}) and inserts
// the rows, skipping tags that already exist.
func LoadTags(ctx context.Context, s store.Store, path string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}

	var fixtures []tagFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	result := &Result{}
	for _, fx := range fixtures {
		if fx.Name == "" || fx.Slug == "" {
			return nil, fmt.Errorf("fixture row missing name or slug: %+v", fx)
		}
		tag := &domain.Tag{Name: fx.Name, Slug: fx.Slug}
		if err := s.CreateTag(ctx, tag); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("insert tag %q: %w", fx.Name, err)
		}
		result.Created++
	}

	logger.Info("loaded tags",
		"file", path,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}
