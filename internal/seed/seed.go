// Package seed carries the demo catalogue (cafes, table layouts, menus,
// vouchers and payment methods) and loads it into any store.Seeder.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

//go:embed seed.json
var catalogue []byte

type document struct {
	Cafes          []model.Cafe          `json:"cafes"`
	Tables         []model.Table         `json:"tables"`
	Menu           []model.MenuItem      `json:"menu"`
	Vouchers       []model.Voucher       `json:"vouchers"`
	PaymentMethods []model.PaymentMethod `json:"paymentMethods"`
}

// Load decodes the embedded catalogue.
func Load() (store.SeedData, error) {
	return Decode(catalogue)
}

// Decode parses a catalogue document and checks that every table and
// menu item points at a known cafe.
func Decode(raw []byte) (store.SeedData, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return store.SeedData{}, fmt.Errorf("decode seed: %w", err)
	}
	cafes := make(map[string]bool, len(doc.Cafes))
	for _, c := range doc.Cafes {
		if c.ID == "" {
			return store.SeedData{}, fmt.Errorf("seed: cafe %q has no id", c.Name)
		}
		cafes[c.ID] = true
	}
	for _, t := range doc.Tables {
		if !cafes[t.CafeID] {
			return store.SeedData{}, fmt.Errorf("seed: table %s references unknown cafe %q", t.ID, t.CafeID)
		}
	}
	for _, m := range doc.Menu {
		if !cafes[m.CafeID] {
			return store.SeedData{}, fmt.Errorf("seed: menu item %s references unknown cafe %q", m.ID, m.CafeID)
		}
	}
	return store.SeedData{
		Cafes:          doc.Cafes,
		Tables:         doc.Tables,
		Menu:           doc.Menu,
		Vouchers:       doc.Vouchers,
		PaymentMethods: doc.PaymentMethods,
	}, nil
}

// Apply loads the embedded catalogue into s.
func Apply(ctx context.Context, s store.Seeder) error {
	data, err := Load()
	if err != nil {
		return err
	}
	if err := s.Seed(ctx, data); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	return nil
}
