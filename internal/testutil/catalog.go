package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

// CatalogRow is one line of a Base Carbone fixture. Numbers are written the
// way the export publishes them, with a comma decimal separator.
type CatalogRow struct {
	RowType   string
	ID        string
	NameFR    string
	NameEN    string
	Total     string
	UnitFR    string
	UnitEN    string
	Category  string
	TagsFR    string
	TagsEN    string
	Program   string
	Location  string
	Validity  string
	Status    string
	CO2f      string
	CH4f      string
	CH4b      string
	N2O       string
	CO2b      string
	OtherGHG  string
	CommentFR string
	CommentEN string
}

// CatalogHeader is the header row of the fixture, a subset of the real export
// columns plus one column the loader ignores.
var CatalogHeader = []string{
	"Type Ligne", "Identifiant de l'élément", "Structure", "Nom base français", "Nom base anglais",
	"Total poste non décomposé", "Unité français", "Unité anglais", "Code de la catégorie",
	"Tags français", "Tags anglais", "Programme", "Localisation géographique",
	"Période de validité", "Statut de l'élément", "CO2f", "CH4f", "CH4b", "N2O", "CO2b",
	"Autres GES", "Commentaire français", "Commentaire anglais",
}

func (r CatalogRow) record() []string {
	return []string{
		r.RowType, r.ID, "", r.NameFR, r.NameEN,
		r.Total, r.UnitFR, r.UnitEN, r.Category,
		r.TagsFR, r.TagsEN, r.Program, r.Location,
		r.Validity, r.Status, r.CO2f, r.CH4f, r.CH4b, r.N2O, r.CO2b,
		r.OtherGHG, r.CommentFR, r.CommentEN,
	}
}

// EncodeCatalog renders rows as a semicolon-delimited ISO-8859-1 file.
func EncodeCatalog(t testing.TB, rows []CatalogRow) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write(CatalogHeader); err != nil {
		t.Fatalf("write fixture header: %v", err)
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			t.Fatalf("write fixture row %q: %v", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush fixture: %v", err)
	}

	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		t.Fatalf("encode fixture as ISO-8859-1: %v", err)
	}
	return latin1
}

// WriteCatalog writes rows to name inside dir and returns the file path.
func WriteCatalog(t testing.TB, dir, name string, rows []CatalogRow) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, EncodeCatalog(t, rows), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// TransportRows is a three-row catalog: two valid transport factors and one
// archived factor whose name also matches "transport".
func TransportRows() []CatalogRow {
	return []CatalogRow{
		{
			RowType:  "Élément",
			ID:       "28001",
			NameFR:   "Transport routier de marchandises",
			NameEN:   "Road freight transport",
			Total:    "0,0937",
			UnitFR:   "kgCO2e/t.km",
			UnitEN:   "kgCO2e/t.km",
			Category: "Transport de marchandises > Routier",
			TagsFR:   "camion,poids lourd",
			TagsEN:   "truck,lorry",
			Program:  "Base Carbone",
			Location: "France continentale",
			Validity: "2025",
			Status:   "Valide générique",
			CO2f:     "0,0871",
			CH4f:     "0,00012",
			N2O:      "0,0021",
		},
		{
			RowType:  "Elément",
			ID:       "28002",
			NameFR:   "Transport aérien passagers",
			NameEN:   "Passenger air transport",
			Total:    "12,5",
			UnitFR:   "kgCO2e/passager.km",
			UnitEN:   "kgCO2e/passenger.km",
			Category: "Transport de personnes > Aérien",
			TagsFR:   "avion",
			TagsEN:   "plane",
			Program:  "Base Carbone",
			Location: "Monde",
			Validity: "2025",
			Status:   "Valide spécifique",
		},
		{
			RowType:  "Element",
			ID:       "19999",
			NameFR:   "transport",
			NameEN:   "transport",
			Total:    "1,0",
			UnitFR:   "kgCO2e/km",
			UnitEN:   "kgCO2e/km",
			Category: "Transport de personnes > Routier",
			Program:  "Ancienne base",
			Location: "France",
			Validity: "2012",
			Status:   "Archivé",
		},
	}
}
