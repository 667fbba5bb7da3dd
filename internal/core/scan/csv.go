// Package scan contains the pure parsing and identity logic for scan
// files produced by a completed kingdom scan.
package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/warden/internal/models"
)

// Column headers written by the scanner. Unknown columns are ignored
// so newer scanner builds can add fields without breaking import.
var columns = map[string]func(*models.GovernorRow, int64){
	"ID":             func(r *models.GovernorRow, v int64) { r.GovernorID = v },
	"Power":          func(r *models.GovernorRow, v int64) { r.Power = v },
	"Killpoints":     func(r *models.GovernorRow, v int64) { r.KillPoints = v },
	"T1 Kills":       func(r *models.GovernorRow, v int64) { r.T1Kills = v },
	"T2 Kills":       func(r *models.GovernorRow, v int64) { r.T2Kills = v },
	"T3 Kills":       func(r *models.GovernorRow, v int64) { r.T3Kills = v },
	"T4 Kills":       func(r *models.GovernorRow, v int64) { r.T4Kills = v },
	"T5 Kills":       func(r *models.GovernorRow, v int64) { r.T5Kills = v },
	"Deads":          func(r *models.GovernorRow, v int64) { r.Dead = v },
	"Rss Gathered":   func(r *models.GovernorRow, v int64) { r.RssGathered = v },
	"Rss Assistance": func(r *models.GovernorRow, v int64) { r.RssAssistance = v },
	"Helps":          func(r *models.GovernorRow, v int64) { r.Helps = v },
}

// ParseCSV reads a scanner CSV export into governor rows. Rows
// without a resolvable governor ID are dropped (the scanner writes
// "Skipped" for screens it could not read); a malformed record makes
// the whole file an error so the importer can report it by name.
func ParseCSV(r io.Reader) ([]models.GovernorRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["ID"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "ID")
	}
	if _, ok := index["Name"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "Name")
	}

	var rows []models.GovernorRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var row models.GovernorRow
		row.GovernorName = field(record, index, "Name")
		row.AllianceName = field(record, index, "Alliance")

		for col, assign := range columns {
			raw := field(record, index, col)
			if raw == "" || raw == "Skipped" || raw == "Unknown" {
				continue
			}
			v, err := parseCount(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %w", line, col, err)
			}
			assign(&row, v)
		}

		if row.GovernorID == 0 {
			continue
		}
		if row.GovernorName == "" {
			row.GovernorName = "Unknown"
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func field(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseCount parses the scanner's number format, which uses thousands
// separators ("12,345,678").
func parseCount(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
