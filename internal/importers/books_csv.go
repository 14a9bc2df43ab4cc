package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mrlokans/librarydesk/internal/services"
)

// BookRow is one data line of a books CSV file.
type BookRow struct {
	Line  int
	Input services.BookInput
}

// ParseBooksCSV reads the books import format: a header row naming the
// columns (title, author, category, isbn in any order, case-insensitive)
// followed by one book per line. Only title is required. Lines that cannot
// be read or have no title are reported in the returned messages and skipped.
func ParseBooksCSV(r io.Reader) ([]BookRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("file is empty")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := headerIndex["title"]; !ok {
		return nil, nil, errors.New("missing required header: title")
	}

	var rows []BookRow
	var problems []string
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}
		if isBlank(record) {
			continue
		}

		row := BookRow{
			Line: lineNum,
			Input: services.BookInput{
				Title:    getCSVValue(record, headerIndex, "title"),
				Author:   getCSVValue(record, headerIndex, "author"),
				Category: getCSVValue(record, headerIndex, "category"),
				ISBN:     getCSVValue(record, headerIndex, "isbn"),
			},
		}
		if row.Input.Title == "" {
			problems = append(problems, fmt.Sprintf("Line %d: skipped - missing title", lineNum))
			continue
		}
		rows = append(rows, row)
	}

	return rows, problems, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
