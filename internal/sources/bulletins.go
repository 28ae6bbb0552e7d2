package sources

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"flos/internal/models"
	"flos/internal/timeparse"
)

// BulletinsName identifies the free-text bulletin feed in logs and metrics
const BulletinsName = "text_bulletins"

var (
	// facilityRe matches a 3-4 letter facility code in parentheses,
	// e.g. "!DEN 12/034 (KDEN) ZDV" -> "KDEN".
	facilityRe = regexp.MustCompile(`\(([A-Z]{3,4})\)`)

	// effectiveRe matches "EFFECTIVE: <YYMMDDHHMM>-<end>" where end is another
	// time block or a sentinel such as UFN or PERM.
	effectiveRe = regexp.MustCompile(`EFFECTIVE:\s*([0-9]{10})-([0-9A-Z]*)`)
)

// Bulletins extracts statuses from legacy free-text notices held in memory
type Bulletins struct {
	texts []string
}

func NewBulletins(texts []string) *Bulletins {
	return &Bulletins{texts: texts}
}

func (s *Bulletins) Name() string {
	return BulletinsName
}

// Extract never fails since the bulletins are already in memory
func (s *Bulletins) Extract(_ context.Context) ([]models.Candidate, error) {
	slog.Debug("Processing text bulletins", "count", len(s.texts))
	return ParseBulletins(s.texts), nil
}

// ParseBulletins parses each bulletin independently. Bulletins without a
// facility code or an effective start time are skipped.
func ParseBulletins(texts []string) []models.Candidate {
	var candidates []models.Candidate
	for _, raw := range texts {
		c, ok := parseBulletin(raw)
		if !ok {
			slog.Debug("Skipping bulletin without facility or effective time")
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func parseBulletin(raw string) (models.Candidate, bool) {
	text := strings.TrimSpace(raw)
	c := models.Candidate{
		StatusType: models.StatusTypeNOTAM,
		RawText:    text,
		Source:     BulletinsName,
	}

	if m := facilityRe.FindStringSubmatch(text); m != nil {
		c.FacilityID = m[1]
	}

	if m := effectiveRe.FindStringSubmatch(text); m != nil {
		c.StartTime, _ = timeparse.ParseCompact(m[1])
		// UFN, PERM and any other non-numeric end leave the status open-ended
		if end := m[2]; isDigits(end) && len(end) >= 10 {
			c.EndTime = timeparse.Ptr(timeparse.ParseCompact(end))
		}
	}

	return c, valid(c)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
