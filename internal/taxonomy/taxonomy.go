package taxonomy

import (
	"context"
	"sync"

	"freelance/notifier/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Model holds the category/subcategory tree of every marketplace. It is
// built once at startup and read-only on the dispatch path; Build is the
// only guarded mutation.
type Model struct {
	mu    sync.RWMutex
	trees map[domain.Host][]domain.Category
}

func NewModel() *Model {
	return &Model{trees: make(map[domain.Host][]domain.Category)}
}

// Replace swaps the whole tree for one host.
func (m *Model) Replace(host domain.Host, categories []domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[host] = categories
}

// Categories returns the ordered top-level categories of host.
func (m *Model) Categories(host domain.Host) []domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trees[host]
}

// Subcategories returns the ordered subcategories of one category, or
// nil when the category is unknown or has no discovered children.
func (m *Model) Subcategories(host domain.Host, categoryID string) []domain.Subcategory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cat := range m.trees[host] {
		if cat.ID == categoryID {
			return cat.Subcategories
		}
	}
	return nil
}

// IsChild reports whether subcategoryID belongs to categoryID on host.
func (m *Model) IsChild(host domain.Host, categoryID, subcategoryID string) bool {
	for _, sub := range m.Subcategories(host, categoryID) {
		if sub.ID == subcategoryID {
			return true
		}
	}
	return false
}

// Titles returns one id->title index covering both categories and
// subcategories of host, used for human-readable filter summaries.
func (m *Model) Titles(host domain.Host) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := make(map[string]string)
	for _, cat := range m.trees[host] {
		titles[cat.ID] = cat.Title
		for _, sub := range cat.Subcategories {
			titles[sub.ID] = sub.Title
		}
	}
	return titles
}

// Keyword returns the native search keyword attached to a subcategory.
// Only Freelance.ua populates keywords.
func (m *Model) Keyword(host domain.Host, subcategoryID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cat := range m.trees[host] {
		for _, sub := range cat.Subcategories {
			if sub.ID == subcategoryID {
				return sub.Keyword
			}
		}
	}
	return ""
}

// Normalize canonicalizes a raw category selection. First every category
// whose full, non-empty subcategory set is contained in subcategoryIDs
// is promoted into the category list; then every subcategory owned by a
// selected category is pruned. Promotion must complete before pruning,
// otherwise a partially pruned selection could never promote. The result
// is deterministic and idempotent.
func (m *Model) Normalize(host domain.Host, categoryIDs, subcategoryIDs []string) ([]string, []string) {
	catIDs := append([]string(nil), categoryIDs...)
	selected := make(map[string]bool, len(catIDs))
	for _, id := range catIDs {
		selected[id] = true
	}
	subSelected := make(map[string]bool, len(subcategoryIDs))
	for _, id := range subcategoryIDs {
		subSelected[id] = true
	}

	for _, cat := range m.Categories(host) {
		if selected[cat.ID] || len(cat.Subcategories) == 0 {
			continue
		}
		complete := true
		for _, sub := range cat.Subcategories {
			if !subSelected[sub.ID] {
				complete = false
				break
			}
		}
		if complete {
			catIDs = append(catIDs, cat.ID)
			selected[cat.ID] = true
		}
	}

	for _, catID := range catIDs {
		for _, sub := range m.Subcategories(host, catID) {
			delete(subSelected, sub.ID)
		}
	}

	subIDs := make([]string, 0, len(subcategoryIDs))
	for _, id := range subcategoryIDs {
		if subSelected[id] {
			subIDs = append(subIDs, id)
		}
	}
	return catIDs, subIDs
}

// CategorySource builds the category tree of one marketplace by
// scraping its listing page.
type CategorySource interface {
	Host() domain.Host
	BuildCategories(ctx context.Context) ([]domain.Category, error)
}

// Build fills the model from the given sources, consulting the snapshot
// cache first. Partial or missing trees are degraded-but-non-fatal:
// keyword-only filters keep working for a host without categories.
func (m *Model) Build(ctx context.Context, cache *Cache, sources ...CategorySource) {
	for _, src := range sources {
		host := src.Host()

		if cached, err := cache.Get(ctx, host); err != nil {
			log.Warnf("Taxonomy cache read for %s failed: %v", host, err)
		} else if cached != nil {
			log.Infof("Loaded %d categories for %s from cache", len(cached), host)
			m.Replace(host, cached)
			continue
		}

		categories, err := src.BuildCategories(ctx)
		if err != nil {
			log.Errorf("Failed to build categories for %s: %v", host, err)
			continue
		}
		m.Replace(host, categories)

		if err := cache.Put(ctx, host, categories); err != nil {
			log.Warnf("Taxonomy cache write for %s failed: %v", host, err)
		}
	}

	m.warnIncomplete()
	log.Info("Category trees built")
}

// warnIncomplete mirrors the startup sanity check: a host without
// categories, or a category without subcategories, is logged and kept.
func (m *Model) warnIncomplete() {
	for _, host := range domain.Hosts {
		categories := m.Categories(host)
		if len(categories) == 0 {
			log.Warnf("Category list of %s is empty", host)
			continue
		}
		for _, cat := range categories {
			if len(cat.Subcategories) == 0 {
				log.Warnf("Category %q of %s has no subcategories", cat.Title, host)
			}
		}
	}
}
