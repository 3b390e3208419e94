package client

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"freelance/notifier/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const flruJobsURL = "https://www.fl.ru/projects/"

// The FL.ru top-level catalogue is fixed; only the subcategories are
// discovered by scraping the listing page.
var flruTopCategories = []domain.Category{
	{ID: "2", Title: "Разработка сайтов"},
	{ID: "8", Title: "Тексты"},
	{ID: "3", Title: "Дизайн и Арт"},
	{ID: "5", Title: "Программирование"},
	{ID: "11", Title: "Аудио/Видео"},
	{ID: "12", Title: "Реклама и Маркетинг"},
	{ID: "13", Title: "Аутсорсинг и консалтинг"},
	{ID: "16", Title: "Разработка игр"},
	{ID: "7", Title: "Переводы"},
	{ID: "19", Title: "Анимация и флеш"},
	{ID: "10", Title: "Фотография"},
	{ID: "9", Title: "3D Графика"},
	{ID: "20", Title: "Инжиниринг"},
	{ID: "6", Title: "Оптимизация (SEO)"},
	{ID: "22", Title: "Обучение и консультации"},
	{ID: "14", Title: "Архитектура/Интерьер"},
	{ID: "17", Title: "Полиграфия"},
	{ID: "1", Title: "Менеджмент"},
	{ID: "23", Title: "Мобильные приложения"},
	{ID: "24", Title: "Сети и инфосистемы"},
}

var (
	// The category filter lives in an inline script payload:
	// filter_specs[<cat>]=[[<id>, '<title>'],...]
	flruCategoryRe = regexp.MustCompile(`filter_specs\[(\d+)\]=\[(\[[^;]+\])\]`)
	flruSubcatRe   = regexp.MustCompile(`\[([^\[\]]+)\]`)

	// Price and description are emitted by inline scripts, not plain markup.
	flruPriceRe       = regexp.MustCompile(`<script.+<div class="b-post__price.+>(.+)</div>.+</script>`)
	flruDescriptionRe = regexp.MustCompile(`<script.+<div class="b-post__txt[^<]+>([^<]+)</div>.+</script>`)
)

// FLRU is the www.fl.ru adapter. Category search submits one form flag
// per selected category and per bare subcategory id.
type FLRU struct {
	fetcher *Fetcher
}

func NewFLRU(fetcher *Fetcher) *FLRU {
	return &FLRU{fetcher: fetcher}
}

func (s *FLRU) Host() domain.Host {
	return domain.HostFLRU
}

// BuildCategories scrapes the subcategory filter specification embedded
// in the listing page and attaches it to the fixed top-level catalogue.
func (s *FLRU) BuildCategories(ctx context.Context) ([]domain.Category, error) {
	page, err := s.fetcher.Get(ctx, flruJobsURL, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", flruJobsURL, err)
	}
	return parseFLRUCategories(page), nil
}

func parseFLRUCategories(page string) []domain.Category {
	categories := make([]domain.Category, len(flruTopCategories))
	copy(categories, flruTopCategories)

	for _, match := range flruCategoryRe.FindAllStringSubmatch(page, -1) {
		for i := range categories {
			if categories[i].ID != match[1] {
				continue
			}
			for _, spec := range flruSubcatRe.FindAllStringSubmatch(match[2], -1) {
				id, title, ok := strings.Cut(spec[1], ",")
				if !ok {
					continue
				}
				categories[i].Subcategories = append(categories[i].Subcategories, domain.Subcategory{
					ID:    domain.CombineIDs(categories[i].ID, strings.TrimSpace(id)),
					Title: strings.TrimSpace(strings.ReplaceAll(title, "'", "")),
				})
			}
		}
	}
	return categories
}

// Jobs submits the project filter form and parses the resulting listing
// blocks. Listings come back newest-first.
func (s *FLRU) Jobs(ctx context.Context, q Query) []domain.Job {
	page, err := s.fetcher.PostForm(ctx, flruJobsURL, flruForm(q), q.Delay)
	if err != nil {
		log.Errorf("Failed to fetch jobs from %s: %v", s.Host(), err)
		return nil
	}
	return parseFLRUJobs(page)
}

func flruForm(q Query) map[string]string {
	form := map[string]string{
		"action": "postfilter",
		"kind":   "5",
	}

	for _, catID := range q.CategoryIDs {
		form[fmt.Sprintf("pf_categofy[0][%s]", catID)] = "1"
	}
	for _, subID := range q.SubcategoryIDs {
		// The site keys subcategory flags by the bare id; the category
		// association is implicit in its own schema.
		_, bareID := domain.SplitIDs(subID)
		form[fmt.Sprintf("pf_categofy[1][%s]", bareID)] = "1"
	}
	if q.Keywords != "" {
		form["pf_keywords"] = q.Keywords
	}
	return form
}

func parseFLRUJobs(page string) []domain.Job {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		log.Errorf("Failed to parse %s listing page: %v", domain.HostFLRU, err)
		return nil
	}

	var jobs []domain.Job
	doc.Find("div.b-post").Each(func(_ int, post *goquery.Selection) {
		var job domain.Job

		if post.Find("h2.b-post__pin").Length() > 0 {
			job.Pinned = true
		}

		if link := post.Find("a.b-post__link").First(); link.Length() > 0 {
			job.Title = strings.TrimSpace(link.Text())
			href, _ := link.Attr("href")
			job.URL = absoluteURL(domain.HostFLRU, href)
		}

		var scripts []string
		post.Find(`script[type="text/javascript"]`).Each(func(_ int, script *goquery.Selection) {
			if outer, err := goquery.OuterHtml(script); err == nil {
				scripts = append(scripts, outer)
			}
		})
		if len(scripts) > 0 {
			blob := strings.Join(scripts, "\n")
			if m := flruPriceRe.FindStringSubmatch(blob); m != nil {
				job.Price = strings.TrimSpace(html.UnescapeString(m[1]))
			}
			if m := flruDescriptionRe.FindStringSubmatch(blob); m != nil {
				job.Description = strings.TrimSpace(html.UnescapeString(m[1]))
			}
		}

		jobs = append(jobs, job)
	})
	return jobs
}

func absoluteURL(host domain.Host, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return host.String() + href
}

// cleanText collapses every whitespace run into a single space.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
