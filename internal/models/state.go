package models

// State is one Brazilian federative unit, lazily seeded from static reference
// data on first request.
type State struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}
