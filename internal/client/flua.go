package client

import (
	"context"
	"fmt"
	"strings"

	"freelance/notifier/internal/domain"
	"freelance/notifier/internal/taxonomy"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const fluaOrdersURL = "https://freelance.ua/orders/"

// FLUA is the freelance.ua adapter. Its search endpoint is keyword
// driven even for category browsing, so a category selection is resolved
// into the textual keywords attached to each subcategory.
type FLUA struct {
	fetcher  *Fetcher
	taxonomy *taxonomy.Model
}

func NewFLUA(fetcher *Fetcher, model *taxonomy.Model) *FLUA {
	return &FLUA{fetcher: fetcher, taxonomy: model}
}

func (s *FLUA) Host() domain.Host {
	return domain.HostFLUA
}

// BuildCategories walks the left-hand category list markup of the
// orders page.
func (s *FLUA) BuildCategories(ctx context.Context) ([]domain.Category, error) {
	page, err := s.fetcher.Get(ctx, fluaOrdersURL, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", fluaOrdersURL, err)
	}
	return parseFLUACategories(page)
}

func parseFLUACategories(page string) ([]domain.Category, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse category markup: %w", err)
	}

	var categories []domain.Category
	list := doc.Find("ul.l-left-categories.l-inside.visible-md.visible-lg").First()
	list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
		category := domain.Category{
			ID:    item.AttrOr("data-id", ""),
			Title: strings.TrimSpace(item.Find("span.j-cat-title").First().Text()),
		}

		item.Find("ul").First().ChildrenFiltered("li").Each(func(_ int, child *goquery.Selection) {
			spec := child.Find("span.j-spec").First()
			if spec.Length() == 0 {
				return
			}
			category.Subcategories = append(category.Subcategories, domain.Subcategory{
				ID:      domain.CombineIDs(spec.AttrOr("data-cat", ""), spec.AttrOr("data-id", "")),
				Title:   strings.TrimSpace(spec.Text()),
				Keyword: spec.AttrOr("data-keyword", ""),
			})
		})

		categories = append(categories, category)
	})
	return categories, nil
}

// Jobs queries the orders page and parses the project list. A category
// selection expands every selected category to all of its subcategories
// and joins their native keywords into the "orders" parameter.
func (s *FLUA) Jobs(ctx context.Context, q Query) []domain.Job {
	params := map[string]string{
		"page": "1",
		"pc":   "1",
	}

	if q.Keywords != "" {
		params["q"] = q.Keywords
	} else if orders := s.ordersParam(q); orders != "" {
		params["orders"] = orders
	}

	page, err := s.fetcher.Get(ctx, fluaOrdersURL, params, q.Delay)
	if err != nil {
		log.Errorf("Failed to fetch jobs from %s: %v", s.Host(), err)
		return nil
	}
	return parseFLUAJobs(page)
}

func (s *FLUA) ordersParam(q Query) string {
	subIDs := append([]string(nil), q.SubcategoryIDs...)
	for _, catID := range q.CategoryIDs {
		for _, sub := range s.taxonomy.Subcategories(domain.HostFLUA, catID) {
			subIDs = append(subIDs, sub.ID)
		}
	}

	keywords := make([]string, 0, len(subIDs))
	for _, subID := range subIDs {
		if keyword := s.taxonomy.Keyword(domain.HostFLUA, subID); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return strings.Join(keywords, ",")
}

func parseFLUAJobs(page string) []domain.Job {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		log.Errorf("Failed to parse %s listing page: %v", domain.HostFLUA, err)
		return nil
	}

	var jobs []domain.Job
	root := doc.Find("ul.l-projectList").First()
	root.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
		var job domain.Job

		if header := item.Find("header.l-project-title").First(); header.Length() > 0 {
			if header.Find("i.c-icon-fixed").Length() > 0 {
				job.Pinned = true
			}
			if link := header.ChildrenFiltered("a").First(); link.Length() > 0 {
				job.Title = strings.TrimSpace(link.Text())
				job.URL = absoluteURL(domain.HostFLUA, link.AttrOr("href", ""))
			}
		}

		if head := item.Find("div.l-project-head").First(); head.Length() > 0 {
			if price := head.ChildrenFiltered("span").First(); price.Length() > 0 {
				job.Price = strings.TrimSpace(price.Text())
			}
		}

		if article := item.Find("article").First(); article.Length() > 0 {
			if p := article.ChildrenFiltered("p").First(); p.Length() > 0 {
				job.Description = cleanText(p.Text())
			}
		}

		jobs = append(jobs, job)
	})
	return jobs
}
