// Package catalog parses the ADEME Base Carbone export into emission factors.
//
// The export is a semicolon-delimited ISO-8859-1 file with comma decimals.
// Encoding selection and decimal normalization happen in decode.go so the rest
// of the system only sees UTF-8 strings and float64 values.
//
// Import Path: greenledger.io/greenledger/internal/catalog
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/logger"
)

// Column names of the Base Carbone export.
const (
	ColRowType   = "Type Ligne"
	ColID        = "Identifiant de l'élément"
	ColNameFR    = "Nom base français"
	ColNameEN    = "Nom base anglais"
	ColTotal     = "Total poste non décomposé"
	ColUnitFR    = "Unité français"
	ColUnitEN    = "Unité anglais"
	ColCategory  = "Code de la catégorie"
	ColTagsFR    = "Tags français"
	ColTagsEN    = "Tags anglais"
	ColProgram   = "Programme"
	ColLocation  = "Localisation géographique"
	ColValidity  = "Période de validité"
	ColStatus    = "Statut de l'élément"
	ColCO2Fossil = "CO2f"
	ColCH4Fossil = "CH4f"
	ColCH4Bio    = "CH4b"
	ColN2O       = "N2O"
	ColCO2Bio    = "CO2b"
	ColOtherGHG  = "Autres GES"
	ColCommentFR = "Commentaire français"
	ColCommentEN = "Commentaire anglais"
)

const (
	fieldSeparator = ';'
	// Only the first few skips are logged; a full export has hundreds.
	maxLoggedSkips  = 5
	skipReasonTotal = "total factor missing or malformed"
)

// Result is the outcome of one catalog load.
type Result struct {
	// Factors in file order.
	Factors []*domain.Factor
	// Path is the file that was read, empty for Parse.
	Path string
	// Missing is set when the file did not exist. Factors is empty then.
	Missing bool
	// Rows counts data records read, excluding the header.
	Rows int
	// Skipped counts factor rows dropped for an unusable total or a malformed record.
	Skipped int
	// Duplicates counts factor rows dropped because their id was already loaded.
	Duplicates int
}

// Load reads the catalog file at path.
// A missing file yields an empty Result with Missing set and no error.
func Load(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Result{Path: path, Missing: true}, nil
		}
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// Parse reads an ISO-8859-1 encoded catalog from r.
// Unusable rows are skipped and counted; only read failures are returned.
func Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(NewDecodingReader(r))
	cr.Comma = fieldSeparator
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	res := &Result{}

	header, err := cr.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := newColumns(header)
	if !cols.has(ColRowType) || !cols.has(ColTotal) {
		logger.Warn("Catalog header lacks required columns",
			zap.String("row_type_column", ColRowType),
			zap.String("total_column", ColTotal),
			zap.Int("columns", len(header)),
		)
	}

	seen := make(map[string]struct{})
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rows++
				res.Skipped++
				res.logSkip(perr.Line, err.Error())
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		res.Rows++

		fields := cols.row(record)
		if !IsLeafRow(fields.get(ColRowType)) {
			continue
		}

		factor, ok := buildFactor(fields)
		if !ok {
			res.Skipped++
			line, _ := cr.FieldPos(0)
			res.logSkip(line, skipReasonTotal)
			continue
		}
		if _, dup := seen[factor.ID]; dup {
			res.Duplicates++
			continue
		}
		seen[factor.ID] = struct{}{}
		res.Factors = append(res.Factors, factor)
	}
	return res, nil
}

func (r *Result) logSkip(line int, reason string) {
	if r.Skipped > maxLoggedSkips {
		return
	}
	logger.Debug("Catalog row skipped",
		zap.Int("line", line),
		zap.String("reason", reason),
	)
}

func buildFactor(r row) (*domain.Factor, bool) {
	total, err := ParseDecimal(r.get(ColTotal))
	if err != nil {
		return nil, false
	}

	status := r.get(ColStatus)
	return &domain.Factor{
		ID:                 r.get(ColID),
		NameFR:             r.get(ColNameFR),
		NameEN:             r.get(ColNameEN),
		Value:              total,
		UnitFR:             r.get(ColUnitFR),
		UnitEN:             r.get(ColUnitEN),
		Category:           r.get(ColCategory),
		TagsFR:             r.get(ColTagsFR),
		TagsEN:             r.get(ColTagsEN),
		Source:             r.get(ColProgram),
		GeographicLocation: r.get(ColLocation),
		ValidityPeriod:     r.get(ColValidity),
		Status:             ParseStatus(status),
		StatusLabel:        status,
		CO2Fossil:          ParseOptionalDecimal(r.get(ColCO2Fossil)),
		CH4Fossil:          ParseOptionalDecimal(r.get(ColCH4Fossil)),
		CH4Bio:             ParseOptionalDecimal(r.get(ColCH4Bio)),
		N2O:                ParseOptionalDecimal(r.get(ColN2O)),
		CO2Bio:             ParseOptionalDecimal(r.get(ColCO2Bio)),
		OtherGHG:           ParseOptionalDecimal(r.get(ColOtherGHG)),
		CommentFR:          r.get(ColCommentFR),
		CommentEN:          r.get(ColCommentEN),
	}, true
}

// columns maps header names to record positions.
// When a name repeats, the last occurrence wins.
type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c columns) row(record []string) row {
	return row{cols: c, record: record}
}

type row struct {
	cols   columns
	record []string
}

// get returns the field for a column, or "" when the column is absent or the
// record is short.
func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return r.record[i]
}
