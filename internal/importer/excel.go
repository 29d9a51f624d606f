// Package importer parses roster spreadsheets uploaded by admins. Sheets
// come from many sources, so header matching is deliberately loose.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one roster entry extracted from a spreadsheet.
type Row struct {
	SteamID  string
	Name     *string
	Dotabuff *string
}

// Header spellings observed in the wild, lowercased.
var (
	idHeaders       = []string{"id", "steamid", "steam_id"}
	nameHeaders     = []string{"jugador", "player", "player_name", "name"}
	dotabuffHeaders = []string{"dotabuff"}
)

// Parse reads the first sheet of an xlsx file and extracts roster rows. Rows
// without an ID cell are skipped; a missing header row yields an error.
func Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	idCol, nameCol, dotabuffCol := mapColumns(rows[0])
	if idCol < 0 {
		return nil, fmt.Errorf("no id column found in header %v", rows[0])
	}

	var out []Row
	for _, cells := range rows[1:] {
		id := cell(cells, idCol)
		if id == "" {
			continue
		}
		out = append(out, Row{
			SteamID:  id,
			Name:     optCell(cells, nameCol),
			Dotabuff: optCell(cells, dotabuffCol),
		})
	}
	return out, nil
}

func mapColumns(header []string) (idCol, nameCol, dotabuffCol int) {
	idCol, nameCol, dotabuffCol = -1, -1, -1
	for i, h := range header {
		switch {
		case idCol < 0 && matches(h, idHeaders):
			idCol = i
		case nameCol < 0 && matches(h, nameHeaders):
			nameCol = i
		case dotabuffCol < 0 && matches(h, dotabuffHeaders):
			dotabuffCol = i
		}
	}
	return
}

func matches(header string, candidates []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, c := range candidates {
		if h == c {
			return true
		}
	}
	return false
}

func cell(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

func optCell(cells []string, col int) *string {
	v := cell(cells, col)
	if v == "" {
		return nil
	}
	return &v
}
