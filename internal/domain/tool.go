package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawTool is the typed shape every tool adapter maps its payload into.
type RawTool struct {
	Name        string
	Description string
	Website     string
	Pricing     string
	Source      string
	// Popularity is the source's signal (stars, likes).
	Popularity int
}

// Validate rejects records missing a name or a description.
func (r RawTool) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrMalformedItem)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: missing description for %q", ErrMalformedItem, r.Name)
	}
	return nil
}

// ToolItem is a directory entry sourced by the automation pipeline.
type ToolItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	WeeklyUsers int       `json:"weeklyUsers"`
	Growth      float64   `json:"growth"`
	Website     string    `json:"website"`
	Pricing     string    `json:"pricing"`
	Source      string    `json:"source"`
	Votes       int       `json:"votes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
