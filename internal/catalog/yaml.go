package catalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// menuFile is the on-disk menu layout.
type menuFile struct {
	Drinks []menuDrink `yaml:"drinks"`
}

type menuDrink struct {
	Name   string `yaml:"name"`
	Price  string `yaml:"price"`
	Custom bool   `yaml:"custom"`
}

// Load reads a YAML menu file and builds a Catalog from it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("menu %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Catalog from YAML menu content.
func Parse(data []byte) (*Catalog, error) {
	var mf menuFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	entries := make([]Entry, 0, len(mf.Drinks))
	for i, d := range mf.Drinks {
		if d.Custom {
			if d.Price != "" {
				return nil, fmt.Errorf("drinks[%d] %q: custom entry must not have a price", i, d.Name)
			}
			entries = append(entries, Custom(d.Name))
			continue
		}
		p, err := decimal.NewFromString(d.Price)
		if err != nil {
			return nil, fmt.Errorf("drinks[%d] %q: invalid price %q", i, d.Name, d.Price)
		}
		entries = append(entries, Entry{Name: d.Name, UnitPrice: &p})
	}
	return New(entries)
}
