package model

import "time"

// DocumentType is the renewal kind of a tracked document.
type DocumentType string

const (
	DocumentTypePollution DocumentType = "pollution"
	DocumentTypeInsurance DocumentType = "insurance"
	DocumentTypeOther     DocumentType = "other"
)

// DocumentTypes lists every accepted DocumentType.
var DocumentTypes = []DocumentType{DocumentTypePollution, DocumentTypeInsurance, DocumentTypeOther}

// Valid reports whether t is one of DocumentTypes.
func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Document is a renewable vehicle document and its expiration date.
// Records are never edited in place; a correction is a delete plus a new record.
type Document struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Date      Date         `json:"date"`
	Type      DocumentType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}
