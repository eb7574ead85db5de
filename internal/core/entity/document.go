// Package entity holds base types shared by all posted documents.
package entity

import (
	"time"

	"kardex/internal/core/id"
)

// Base is embedded by every persisted entity.
type Base struct {
	ID        id.ID     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewBase creates a Base with a fresh UUIDv7 and timestamp.
func NewBase() Base {
	return Base{
		ID:        id.New(),
		CreatedAt: time.Now().UTC(),
	}
}

// Document is the base type for posted stock documents.
// A document is immutable once posted: there is no update or unpost,
// corrections are posted as new documents.
type Document struct {
	Base

	// Number is the sequential document number within its series.
	Number int64 `db:"number" json:"number"`

	// Date is the business date of the document.
	Date time.Time `db:"date" json:"date"`

	// Actor is who posted the document.
	Actor string `db:"actor" json:"actor"`

	// Comment is an optional free-text note.
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a Document dated now; the number is assigned
// by the numerator at posting time.
func NewDocument(actor string) Document {
	return Document{
		Base:  NewBase(),
		Date:  time.Now().UTC(),
		Actor: actor,
	}
}
