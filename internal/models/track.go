package models

// Track is a playable song: an external media id plus the display title that
// counts as the correct answer.
type Track struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
