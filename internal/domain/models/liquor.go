package models

import "time"

// Liquor is one stock keeping unit of the bar inventory.
type Liquor struct {
	ID          int       `json:"id"`
	Name        string    `json:"liquor_name"`
	Type        string    `json:"liquor_type"`
	BottleSize  string    `json:"bottle_size"`
	Quantity    int       `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
	EditedBy    string    `json:"edited_by"`
}
