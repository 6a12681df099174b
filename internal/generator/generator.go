// Package generator mints values on demand; the chime repository keys
// entries by the UUIDs produced here.
package generator

import (
	"github.com/google/uuid"
)

// Generator produces a new value of type T on each call.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces UUIDv4 strings, used as chime ids.
type UUIDV4Generator struct{}

func (g UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = UUIDV4Generator{}
