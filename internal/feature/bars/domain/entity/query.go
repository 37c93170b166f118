package entity

import "time"

// Query selects stored bars for one symbol. Zero From/To leave the range open.
// Limit <= 0 means no limit.
type Query struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}
