package domain

import (
	"strconv"
	"strings"
)

// Subcategory is a second-level project category. The Keyword field is
// only populated for Freelance.ua, whose search endpoint is keyword
// driven even when browsing by category.
type Subcategory struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Keyword string `json:"keyword,omitempty"`
}

// Category is a top-level project category. The tree is exactly one
// level deep: subcategories never nest further.
type Category struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Raw subcategory ids are not unique on their own on either marketplace,
// so the externally visible subcategory identifier is the pair of ids
// packed into one 8-character string.
const compoundIDWidth = 4

// CombineIDs packs a category id and a raw subcategory id into a single
// compound identifier, zero-padding each part to 4 characters. Ids of up
// to 4 decimal digits round-trip exactly through SplitIDs.
func CombineIDs(categoryID, subcategoryID string) string {
	return pad(categoryID) + pad(subcategoryID)
}

// SplitIDs unpacks a compound identifier back into the category id and
// the raw subcategory id. Malformed input yields two empty strings.
func SplitIDs(combined string) (categoryID, subcategoryID string) {
	if len(combined) != 2*compoundIDWidth {
		return "", ""
	}
	cat, err := strconv.Atoi(combined[:compoundIDWidth])
	if err != nil {
		return "", ""
	}
	sub, err := strconv.Atoi(combined[compoundIDWidth:])
	if err != nil {
		return "", ""
	}
	return strconv.Itoa(cat), strconv.Itoa(sub)
}

func pad(id string) string {
	if len(id) >= compoundIDWidth {
		return id
	}
	return strings.Repeat("0", compoundIDWidth-len(id)) + id
}
