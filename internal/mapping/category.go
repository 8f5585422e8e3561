package mapping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCategories is returned for an empty, incomplete or duplicated set.
var ErrInvalidCategories = errors.New("invalid categories")

// Category routes rows whose name equals Label into the map written to File.
type Category struct {
	Label string `yaml:"label"`
	File  string `yaml:"file"`
}

type categoriesFile struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCategories are the three species tracked around Daegu.
func DefaultCategories() []Category {
	return []Category{
		{Label: "Humulus japonicus Siebold", File: "Humulus_japonicus_Siebold.html"},
		{Label: "Sicyos angulatus", File: "Sicyos_angulatus.html"},
		{Label: "Prickly lettuce", File: "Prickly_lettuce.html"},
	}
}

// LoadCategories reads a YAML file of the form
//
//	categories:
//	  - label: Sicyos angulatus
//	    file: Sicyos_angulatus.html
//
// An empty path returns DefaultCategories.
func LoadCategories(path string) ([]Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer f.Close()

	var doc categoriesFile
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCategories, err)
	}
	if err := ValidateCategories(doc.Categories); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func ValidateCategories(categories []Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidCategories)
	}
	labels := make(map[string]struct{}, len(categories))
	files := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if c.Label == "" || c.File == "" {
			return fmt.Errorf("%w: entry %d needs label and file", ErrInvalidCategories, i)
		}
		if !isPlainFileName(c.File) {
			return fmt.Errorf("%w: file %q must be a bare file name", ErrInvalidCategories, c.File)
		}
		if _, dup := labels[c.Label]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidCategories, c.Label)
		}
		if _, dup := files[c.File]; dup {
			return fmt.Errorf("%w: duplicate file %q", ErrInvalidCategories, c.File)
		}
		labels[c.Label] = struct{}{}
		files[c.File] = struct{}{}
	}
	return nil
}

// isPlainFileName keeps every map inside the output directory.
func isPlainFileName(name string) bool {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}
