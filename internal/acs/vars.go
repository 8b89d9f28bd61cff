package acs

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Catalog maps ACS variable codes to human-readable labels, loaded from a
// YAML file the user supplies alongside their query:
//
//	variables:
//	  B01003_001E: Total population
//	  B19013_001E: Median household income
type Catalog struct {
	Variables map[string]string `yaml:"variables"`
}

// LoadCatalog reads a variable catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "acs: read catalog %s", path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "acs: parse catalog %s", path)
	}
	return &c, nil
}

// Label returns the display label for a variable code, falling back to the
// code itself for unknown variables. A nil catalog is valid and always falls
// back.
func (c *Catalog) Label(code string) string {
	if c == nil {
		return code
	}
	if label, ok := c.Variables[code]; ok && label != "" {
		return label
	}
	return code
}
