package model

import "time"

// Account is a shared dimension record, unique by Number across all imports.
// Name is seeded from the first imported line's description and never
// overwritten by later imports.
type Account struct {
	ID        int64
	Number    string
	Name      string
	CreatedAt time.Time
}
