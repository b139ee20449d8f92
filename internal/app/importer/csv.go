// Package importer reads roster spreadsheets exported as CSV
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/attachtrack/attachtrack/internal/app/services"
)

// Key columns of the two roster kinds
const (
	StudentKeyColumn    = "registrationNo"
	SupervisorKeyColumn = "staffNo"
)

var requiredColumns = []string{"firstname", "lastname", "phone", "email"}

// ReadRoster parses a CSV with a header row into roster records. Column
// names are matched case-insensitively; othernames is optional and unknown
// columns are ignored. Blank lines are skipped.
func ReadRoster(r io.Reader, keyColumn string) ([]services.RosterRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range append([]string{keyColumn}, requiredColumns...) {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := columns[strings.ToLower(name)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []services.RosterRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}
		records = append(records, services.RosterRecord{
			Key:        field(row, keyColumn),
			Firstname:  field(row, "firstname"),
			Lastname:   field(row, "lastname"),
			Othernames: field(row, "othernames"),
			Phone:      field(row, "phone"),
			Email:      field(row, "email"),
		})
	}
	return records, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
