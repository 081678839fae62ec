package models

import "time"

// AlertKind is the closed set of alerts the processor emits.
type AlertKind string

const (
	AlertKindDocumentExpiring AlertKind = "DOCUMENT_EXPIRING"
	AlertKindDocumentExpired  AlertKind = "DOCUMENT_EXPIRED"
)

// Alert records one notification emitted for a document.
type Alert struct {
	ID         string    `db:"id" json:"id"`
	Kind       AlertKind `db:"kind" json:"kind"`
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Message    string    `db:"message" json:"message"`
	Emailed    bool      `db:"emailed" json:"emailed"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AlertProcessResult summarises one processing pass.
type AlertProcessResult struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Emailed int `json:"emailed"`
}
