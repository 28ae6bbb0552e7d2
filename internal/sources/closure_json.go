package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"flos/internal/models"
	"flos/internal/timeparse"
)

// ClosureJSONName identifies the runway closure feed in logs and metrics
const ClosureJSONName = "runway_json"

// closureRecord is one entry of the runway closure JSON array. Status and
// reason are free-form and rendered as text whatever their JSON type.
type closureRecord struct {
	FacilityICAO       string `json:"facility_icao"`
	ReportType         string `json:"report_type"`
	Status             any    `json:"status"`
	ClosureReason      any    `json:"closure_reason"`
	TimeActiveUTC      string `json:"time_active_utc"`
	EstimatedReopenUTC string `json:"estimated_reopen_utc"`
}

// ClosureJSON reads runway closures from a JSON document on disk
type ClosureJSON struct {
	path string
}

func NewClosureJSON(path string) *ClosureJSON {
	return &ClosureJSON{path: path}
}

func (s *ClosureJSON) Name() string {
	return ClosureJSONName
}

// Extract reads and decodes the closure file
func (s *ClosureJSON) Extract(_ context.Context) ([]models.Candidate, error) {
	slog.Debug("Processing closure JSON", "path", s.path)

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open closure file %s: %w", s.path, err)
	}
	defer file.Close()

	candidates, err := ParseClosures(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse closure file %s: %w", s.path, err)
	}
	return candidates, nil
}

// ParseClosures decodes a JSON array of closure objects. A document that is
// not a single valid array fails as a whole. Entries that do not decode, or
// lack a facility, report type, or parseable activation time, are skipped.
func ParseClosures(r io.Reader) ([]models.Candidate, error) {
	dec := json.NewDecoder(r)
	var entries []json.RawMessage
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode closures: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to decode closures: unexpected data after array")
	}

	candidates := make([]models.Candidate, 0, len(entries))
	for i, entry := range entries {
		var rec closureRecord
		if err := decodeRecord(entry, &rec); err != nil {
			slog.Debug("Skipping closure record", "index", i, "error", err)
			continue
		}

		text := textValue(rec.Status)
		if reason := textValue(rec.ClosureReason); reason != "" {
			text += " - " + reason
		}

		start, _ := timeparse.ParseISO(rec.TimeActiveUTC)
		c := models.Candidate{
			FacilityID: rec.FacilityICAO,
			StatusType: rec.ReportType,
			StartTime:  start,
			EndTime:    timeparse.Ptr(timeparse.ParseISO(rec.EstimatedReopenUTC)),
			RawText:    text,
			Source:     ClosureJSONName,
		}
		if !valid(c) {
			slog.Debug("Skipping closure record", "facility", rec.FacilityICAO, "time_active_utc", rec.TimeActiveUTC)
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// decodeRecord keeps JSON numbers in their written form
func decodeRecord(entry json.RawMessage, rec *closureRecord) error {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	return dec.Decode(rec)
}

// textValue renders a free-form JSON value. Null is empty.
func textValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
