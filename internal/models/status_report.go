package models

import "time"

// StatusType values produced by the built-in sources. Other labels pass
// through from the JSON and CSV feeds unchanged.
const (
	StatusTypeRunway = "RUNWAY"
	StatusTypeComm   = "COMM"
	StatusTypeNOTAM  = "NOTAM"
)

// StatusReport is a stored facility status row
type StatusReport struct {
	ReportID    int64      `db:"report_id"`      // Surrogate key assigned by the store on insert
	FacilityID  string     `db:"facility_id"`    // 3-4 character facility code (e.g., KDEN)
	StatusType  string     `db:"status_type"`    // Category label (RUNWAY, COMM, NOTAM, ...)
	StartTime   time.Time  `db:"start_time"`     // UTC start of the status
	EndTime     *time.Time `db:"end_time"`       // UTC end, nil when open-ended (UFN/PERM)
	RawText     string     `db:"raw_notam_text"` // Source description, formatting varies by source
	LastUpdated time.Time  `db:"last_updated"`   // Set by the store on every insert and update
}

// Key returns the natural key of the stored report
func (r *StatusReport) Key() NaturalKey {
	return NewNaturalKey(r.FacilityID, r.StatusType, r.StartTime)
}

// Candidate is a normalized status extracted from a source but not yet persisted
type Candidate struct {
	FacilityID string
	StatusType string
	StartTime  time.Time
	EndTime    *time.Time
	RawText    string
	Source     string // Name of the source that produced it, for logging only
}

// Key returns the natural key of the candidate
func (c Candidate) Key() NaturalKey {
	return NewNaturalKey(c.FacilityID, c.StatusType, c.StartTime)
}

// NaturalKey identifies the same status event across ingestion cycles
type NaturalKey struct {
	FacilityID string
	StatusType string
	StartTime  time.Time
}

// NewNaturalKey builds a key with the start time normalized to UTC
func NewNaturalKey(facilityID, statusType string, start time.Time) NaturalKey {
	return NaturalKey{
		FacilityID: facilityID,
		StatusType: statusType,
		StartTime:  start.UTC(),
	}
}
