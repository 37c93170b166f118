// Package entity defines the domain models for the watchlist feature.
package entity

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyCode is returned when a symbol has no ticker code.
	ErrEmptyCode = errors.New("symbol code is empty")
	// ErrNotFound is returned when a code is not on the watchlist.
	ErrNotFound = errors.New("symbol not found")
)

// Symbol is a ticker on the watchlist. Active symbols are polled when no
// symbols are configured explicitly.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:100;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// NormalizeCode trims and upper-cases a ticker code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
