package domain

// Job is a single normalized marketplace listing. Values are ephemeral:
// they live for one fetch cycle, only the URL of the newest delivered
// job survives as a filter watermark.
type Job struct {
	// Pinned marks sponsored entries that never count as new.
	Pinned      bool   `json:"pinned"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}
