// Package dto defines data transfer objects for the watchlist HTTP API.
package dto

// SymbolItem represents a symbol in the API response.
// It contains only the public-facing fields needed by clients.
type SymbolItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// WatchRequest is the body of POST /symbols.
type WatchRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name"`
	Market  string `json:"market"`
	SortKey int    `json:"sort_key"`
}
