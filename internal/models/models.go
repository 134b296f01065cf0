// package models defines the data model for the album sync job
package models

import (
	"time"
)

// Model is a record kept in the local run history. Albums and sheet rows are not Models: the spreadsheet is
// their only store.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the CRUD surface of a history table. List criteria keys are table specific.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error // soft delete
	List(criteria map[string]any) ([]T, error)
}
