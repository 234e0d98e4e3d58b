// Package ingest turns uploaded documents into BOQ and quote models.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"quotecraft/internal/compare/model"
	"quotecraft/internal/fileio"
	"quotecraft/internal/utils"
)

var (
	ErrInvalidFileType = errors.New("fileType must be boq or quote")
	ErrUnsupportedFile = errors.New("unsupported file format")
	ErrNoItems         = errors.New("no line items found")
)

type FileType string

const (
	FileBOQ   FileType = "boq"
	FileQuote FileType = "quote"
)

func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimSpace(s))) {
	case FileBOQ:
		return FileBOQ, nil
	case FileQuote:
		return FileQuote, nil
	}
	return "", ErrInvalidFileType
}

// Mapping names the columns to read. Each field may hold alternatives
// separated by "|".
type Mapping struct {
	ItemNumber  string
	SKU         string
	Description string
	Section     string
	Unit        string
	Qty         string
	Rate        string
	LineTotal   string
	LeadTime    string
	HeaderRow   int // 1-based
}

func DefaultMapping() Mapping {
	return Mapping{
		ItemNumber:  "item no|item number|s no|sl no",
		SKU:         "sku|item code|code|part no|part number",
		Description: "description|item description|particulars|item|name",
		Section:     "section|trade|category",
		Unit:        "unit|uom|units",
		Qty:         "qty|quantity",
		Rate:        "rate|unit rate|unit price|price",
		LineTotal:   "amount|line total|total",
		LeadTime:    "lead time|delivery days|lead time days",
		HeaderRow:   1,
	}
}

// Merge overrides non-empty fields of m with o.
func (m Mapping) Merge(o Mapping) Mapping {
	pick := func(a, b string) string {
		if strings.TrimSpace(b) != "" {
			return b
		}
		return a
	}
	m.ItemNumber = pick(m.ItemNumber, o.ItemNumber)
	m.SKU = pick(m.SKU, o.SKU)
	m.Description = pick(m.Description, o.Description)
	m.Section = pick(m.Section, o.Section)
	m.Unit = pick(m.Unit, o.Unit)
	m.Qty = pick(m.Qty, o.Qty)
	m.Rate = pick(m.Rate, o.Rate)
	m.LineTotal = pick(m.LineTotal, o.LineTotal)
	m.LeadTime = pick(m.LeadTime, o.LeadTime)
	if o.HeaderRow > 0 {
		m.HeaderRow = o.HeaderRow
	}
	return m
}

// Vendor identifies the submitter of a quote upload.
type Vendor struct {
	ID   string
	Name string
}

// Document is the parse result; exactly one of BOQ and Quote is set.
type Document struct {
	Type  FileType     `json:"type"`
	BOQ   *model.BOQ   `json:"boq,omitempty"`
	Quote *model.Quote `json:"quote,omitempty"`
}

// Parse reads a .json, .csv, .xls or .xlsx upload.
func Parse(r io.Reader, filename string, ft FileType, m Mapping, v Vendor) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".json":
		return parseJSON(r, ft, v)
	case fileio.Supported(filename):
		t, err := fileio.ReadTable(r, filename, m.HeaderRow)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filename, err)
		}
		if ft == FileBOQ {
			boq := BOQFromTable(t, m)
			if len(boq.Items) == 0 {
				return nil, ErrNoItems
			}
			return &Document{Type: ft, BOQ: boq}, nil
		}
		q := QuoteFromTable(t, m, v)
		if len(q.Items) == 0 {
			return nil, ErrNoItems
		}
		return &Document{Type: ft, Quote: q}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

func parseJSON(r io.Reader, ft FileType, v Vendor) (*Document, error) {
	dec := json.NewDecoder(r)
	if ft == FileBOQ {
		var boq model.BOQ
		if err := dec.Decode(&boq); err != nil {
			return nil, fmt.Errorf("invalid JSON format: %w", err)
		}
		FinalizeBOQ(&boq)
		return &Document{Type: ft, BOQ: &boq}, nil
	}
	var q model.Quote
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if q.VendorID == "" {
		q.VendorID = v.ID
	}
	if q.VendorName == "" {
		q.VendorName = v.Name
	}
	FinalizeQuote(&q)
	return &Document{Type: ft, Quote: &q}, nil
}

type columns struct {
	itemNumber, sku, description, section, unit, qty, rate, lineTotal, leadTime string
}

func resolveColumns(headers []string, m Mapping) columns {
	return columns{
		itemNumber:  resolveKey(headers, m.ItemNumber),
		sku:         resolveKey(headers, m.SKU),
		description: resolveKey(headers, m.Description),
		section:     resolveKey(headers, m.Section),
		unit:        resolveKey(headers, m.Unit),
		qty:         resolveKey(headers, m.Qty),
		rate:        resolveKey(headers, m.Rate),
		lineTotal:   resolveKey(headers, m.LineTotal),
		leadTime:    resolveKey(headers, m.LeadTime),
	}
}

func num(rec fileio.Record, key string) float64 {
	if key == "" {
		return 0
	}
	f, _ := utils.ParseAmount(rec[key])
	return f
}

// BOQFromTable maps spreadsheet rows to BOQ items. A row with a description
// but no quantity and no rate opens a new section.
func BOQFromTable(t *fileio.Table, m Mapping) *model.BOQ {
	cols := resolveColumns(t.Headers, m)
	boq := &model.BOQ{ID: "boq-" + uuid.NewString(), Items: []model.BOQItem{}}

	section := ""
	for _, rec := range t.Records {
		if looksLikeHeader(rec) {
			continue
		}
		desc := strings.TrimSpace(rec[cols.description])
		if desc == "" || isTotalRow(desc) {
			continue
		}
		qty := num(rec, cols.qty)
		rate := num(rec, cols.rate)
		if qty == 0 && rate == 0 {
			section = desc
			continue
		}
		it := model.BOQItem{
			ItemNumber:     strings.TrimSpace(rec[cols.itemNumber]),
			SKU:            strings.TrimSpace(rec[cols.sku]),
			Description:    desc,
			Section:        section,
			Unit:           strings.TrimSpace(rec[cols.unit]),
			Quantity:       qty,
			EstimatedPrice: rate,
		}
		if s := strings.TrimSpace(rec[cols.section]); s != "" {
			it.Section = s
		}
		if rate != 0 {
			r := rate
			it.BaseRate = &r
		}
		boq.Items = append(boq.Items, it)
	}
	FinalizeBOQ(boq)
	return boq
}

// QuoteFromTable maps spreadsheet rows to quote items of one vendor.
func QuoteFromTable(t *fileio.Table, m Mapping, v Vendor) *model.Quote {
	cols := resolveColumns(t.Headers, m)
	q := &model.Quote{
		ID:         "quote-" + uuid.NewString(),
		VendorID:   v.ID,
		VendorName: v.Name,
		Items:      []model.QuoteItem{},
	}
	for _, rec := range t.Records {
		if looksLikeHeader(rec) {
			continue
		}
		desc := strings.TrimSpace(rec[cols.description])
		sku := strings.TrimSpace(rec[cols.sku])
		if (desc == "" && sku == "") || isTotalRow(desc) {
			continue
		}
		it := model.QuoteItem{
			Vendor:      v.Name,
			Description: desc,
			Unit:        strings.TrimSpace(rec[cols.unit]),
			SKU:         sku,
			UnitPrice:   num(rec, cols.rate),
			Qty:         num(rec, cols.qty),
			LineTotal:   num(rec, cols.lineTotal),
		}
		if cols.leadTime != "" {
			it.LeadTime, _ = utils.ParseInt(rec[cols.leadTime])
		}
		if cols.itemNumber != "" {
			it.BOQLineNo, _ = utils.ParseInt(rec[cols.itemNumber])
		}
		q.Items = append(q.Items, it)
	}
	FinalizeQuote(q)
	return q
}

// FinalizeBOQ fills ids, line numbers and totals left blank by the source.
func FinalizeBOQ(b *model.BOQ) {
	if b.ID == "" {
		b.ID = "boq-" + uuid.NewString()
	}
	sum := 0.0
	for i := range b.Items {
		it := &b.Items[i]
		if it.ID == "" {
			it.ID = fmt.Sprintf("item-%d", i+1)
		}
		if it.LineNo == 0 {
			it.LineNo = i + 1
		}
		if it.EstimatedPrice == 0 && it.BaseRate != nil {
			it.EstimatedPrice = *it.BaseRate
		}
		if it.TotalEstimate == 0 {
			it.TotalEstimate = it.Quantity * it.EstimatedPrice
		}
		sum += it.TotalEstimate
	}
	if b.TotalBOQ == 0 {
		b.TotalBOQ = sum
	}
}

// FinalizeQuote fills line totals and, when absent, the quote total
// (lines + shipping - discount).
func FinalizeQuote(q *model.Quote) {
	if q.ID == "" {
		q.ID = "quote-" + uuid.NewString()
	}
	sum := 0.0
	for i := range q.Items {
		it := &q.Items[i]
		if it.Vendor == "" {
			it.Vendor = q.VendorName
		}
		if it.LineTotal == 0 {
			it.LineTotal = it.Qty * it.UnitPrice * (1 + it.Tax/100)
		}
		sum += it.LineTotal
	}
	if q.TotalCost == 0 && len(q.Items) > 0 {
		q.TotalCost = (sum + q.ShippingCost) * (1 - q.DiscountPercent/100)
	}
}
