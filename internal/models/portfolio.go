package models

// Portfolio is a named container of positions belonging to one owner.
// The (owner_id, name) pair is unique.
type Portfolio struct {
	ID      int    `json:"id"`
	OwnerID int    `json:"owner_id"`
	Name    string `json:"name"`
}
