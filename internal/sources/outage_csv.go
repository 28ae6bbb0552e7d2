package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"flos/internal/models"
	"flos/internal/timeparse"
)

// OutageCSVName identifies the equipment outage feed in logs and metrics
const OutageCSVName = "outage_csv"

// Outage log column headers
const (
	colFacility   = "FACILITY"
	colOutageType = "OUTAGE_TYPE"
	colDetails    = "DETAILS"
	colTimeLost   = "TIME_LOST"
	colEstRepair  = "EST_REPAIR"
)

// requiredColumns must all be present in the header for a row to ever be valid
var requiredColumns = []string{colFacility, colOutageType, colTimeLost}

// utf8BOM is written at the start of files saved as "CSV UTF-8"
const utf8BOM = "\ufeff"

// OutageCSV reads equipment outages from a CSV log on disk
type OutageCSV struct {
	path string
}

func NewOutageCSV(path string) *OutageCSV {
	return &OutageCSV{path: path}
}

func (s *OutageCSV) Name() string {
	return OutageCSVName
}

// Extract reads and parses the outage log
func (s *OutageCSV) Extract(_ context.Context) ([]models.Candidate, error) {
	slog.Debug("Processing outage CSV", "path", s.path)

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outage file %s: %w", s.path, err)
	}
	defer file.Close()

	candidates, err := ParseOutages(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outage file %s: %w", s.path, err)
	}
	return candidates, nil
}

// ParseOutages parses an outage log. Columns are located by header name, so
// their order does not matter. A header lacking FACILITY, OUTAGE_TYPE or
// TIME_LOST is an error. Rows whose facility, outage type or lost time are
// missing or unparseable are skipped.
func ParseOutages(r io.Reader) ([]models.Candidate, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true    // Handle malformed quotes in hand-edited logs
	reader.FieldsPerRecord = -1 // Short rows are handled by getField

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.Trim(strings.TrimSpace(h), "'\"")] = i
	}
	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, fmt.Errorf("missing required column %s in header %v", col, header)
		}
	}

	var candidates []models.Candidate
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		start, _ := timeparse.ParseTabular(getField(record, headerMap, colTimeLost))
		c := models.Candidate{
			FacilityID: getField(record, headerMap, colFacility),
			StatusType: getField(record, headerMap, colOutageType),
			StartTime:  start,
			EndTime:    timeparse.Ptr(timeparse.ParseTabular(getField(record, headerMap, colEstRepair))),
			RawText:    getField(record, headerMap, colDetails),
			Source:     OutageCSVName,
		}
		if !valid(c) {
			slog.Debug("Skipping outage row", "row", record)
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// getField safely retrieves a field from a CSV record by header name.
// Not-a-value markers come back as an empty string.
func getField(record []string, headerMap map[string]int, fieldName string) string {
	idx, ok := headerMap[fieldName]
	if !ok || idx >= len(record) {
		return ""
	}
	value := strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	if timeparse.IsMissing(value) {
		return ""
	}
	return value
}
