package domain

// FilterKind distinguishes the two mutually exclusive filter shapes a
// user may hold per marketplace.
type FilterKind string

const (
	FilterKeywords   FilterKind = "keywords"
	FilterCategories FilterKind = "categories"
)

// FilterKinds lists both shapes in merge order: on duplicate listings
// across shapes the keyword filter wins.
var FilterKinds = []FilterKind{FilterKeywords, FilterCategories}

// Filter is one saved notification filter. Keyword filters carry a
// comma-joined keyword string and empty id lists; category filters carry
// id lists and empty keywords. A subcategory id appears in
// SubcategoryIDs only if its owning category is not in CategoryIDs.
type Filter struct {
	UserID         int64
	Host           Host
	CategoryIDs    []string
	SubcategoryIDs []string
	Keywords       string

	// LastJobURL is the watermark: the url of the newest non-pinned
	// listing already delivered for this filter. Empty means the user
	// was never notified and everything currently listed is new.
	LastJobURL string
}

// Kind reports the filter shape; a non-empty keyword string marks a
// keyword filter regardless of the id lists.
func (f Filter) Kind() FilterKind {
	if f.Keywords != "" {
		return FilterKeywords
	}
	return FilterCategories
}

// User holds per-user delivery settings. The chat-menu layer owns
// mutation; the dispatcher only reads.
type User struct {
	ID          int64
	Active      bool
	Email       string
	EmailActive bool
}

// Notifiable reports whether at least one delivery channel is enabled.
func (u User) Notifiable() bool {
	return u.Active || u.EmailActive
}
