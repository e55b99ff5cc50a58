// Package sheet imports products from a spreadsheet export.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Column positions of the product sheet, after the header row.
const (
	colName = iota
	colPrice
	colCategory
	colDescription
	colSizes
	colColors
	colTags
	colBrand
	colStock
	colThumbnail
)

// FirstDataRow is the 1-based sheet row of the first product.
const FirstDataRow = 2

// Row is a parsed product row.
type Row struct {
	Index int
	Draft product.Draft
}

// RowError describes a row that could not be parsed.
type RowError struct {
	Index  int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Index, e.Reason)
}

// ParseRecords skips the header record and parses the rest. Blank rows are
// ignored silently, invalid rows are reported.
func ParseRecords(records [][]string) ([]Row, []*RowError) {
	if len(records) <= 1 {
		return nil, nil
	}
	var (
		rows []Row
		errs []*RowError
	)
	for i, rec := range records[1:] {
		idx := i + FirstDataRow
		if blank(rec) {
			continue
		}
		d, reason := parseRow(rec)
		if reason != "" {
			errs = append(errs, &RowError{Index: idx, Reason: reason})
			continue
		}
		d.SheetRowIndex = &idx
		rows = append(rows, Row{Index: idx, Draft: d})
	}
	return rows, errs
}

func parseRow(rec []string) (product.Draft, string) {
	if len(rec) < 2 {
		return product.Draft{}, "Row must have at least Name and Price columns"
	}
	name := cell(rec, colName)
	if name == "" {
		return product.Draft{}, "Name is required"
	}
	priceRaw := cell(rec, colPrice)
	if priceRaw == "" {
		return product.Draft{}, "Price is required"
	}
	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		return product.Draft{}, "Invalid price format: " + priceRaw
	}
	if price.IsNegative() {
		return product.Draft{}, "Price must be non-negative"
	}

	d := product.Draft{
		Name:         name,
		Price:        price,
		Category:     cell(rec, colCategory),
		Description:  cell(rec, colDescription),
		Sizes:        list(cell(rec, colSizes)),
		Colors:       list(cell(rec, colColors)),
		Tags:         list(cell(rec, colTags)),
		Brand:        cell(rec, colBrand),
		Stock:        stock(cell(rec, colStock)),
		Availability: product.AvailabilityShow,
		ThumbnailURL: cell(rec, colThumbnail),
		Source:       product.SourceSheet,
	}
	if d.ThumbnailURL != "" {
		d.ImageURLs = []string{d.ThumbnailURL}
	}
	return d, ""
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func list(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stock parses the Stock column. Missing or malformed values mean unlimited.
func stock(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < product.UnlimitedStock {
		return product.UnlimitedStock
	}
	return n
}
