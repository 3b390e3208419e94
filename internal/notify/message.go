package notify

import (
	"fmt"
	"html"
	"strings"

	"freelance/notifier/internal/domain"
)

const (
	emoMoney      = "💰"
	emoPointRight = "👉"
)

// digestMessage renders one Telegram HTML message for all new listings
// of a host: linked title, price, host hashtag and description, with a
// blank-line divider between entries.
func digestMessage(host domain.Host, jobs []domain.Job) string {
	var b strings.Builder
	for i, job := range jobs {
		fmt.Fprintf(&b, "<b><a href=%q>%s</a></b>\n%s <b>%s</b> %s <b>%s</b>\n%s",
			job.URL, job.Title,
			emoMoney, job.Price,
			emoPointRight, host.Hashtag(),
			job.Description)
		if i < len(jobs)-1 {
			b.WriteString("\n\n\n")
		}
	}
	return b.String()
}

const (
	emailDivider = "--- + --- + --- + --- + --- + ---"

	emailHTMLBegin = `<!doctype html>
<html lang="ru">
  <head>
    <meta charset="utf-8">
    <title>Новые проекты от биржи фриланса</title>
  </head>
  <body>
`
	emailHTMLEnd = `  </body>
</html>
`
)

// emailSubject derives the subject from the host and the newest listing.
func emailSubject(host domain.Host, jobs []domain.Job) string {
	return fmt.Sprintf("Новые проекты от %s: %s", host, jobs[0].Title)
}

func emailText(jobs []domain.Job) string {
	var b strings.Builder
	for i, job := range jobs {
		fmt.Fprintf(&b, "Заголовок проекта: %s\nСсылка на страницу проекта: %s\nБюджет: %s\nОписание:\n%s",
			job.Title, job.URL, job.Price, job.Description)
		if i < len(jobs)-1 {
			fmt.Fprintf(&b, "\n\n%s\n\n", emailDivider)
		}
	}
	return b.String()
}

func emailHTML(jobs []domain.Job) string {
	var b strings.Builder
	b.WriteString(emailHTMLBegin)
	for i, job := range jobs {
		fmt.Fprintf(&b, "<p>\n<b><a href=%q>%s</a></b><br><b>Бюджет проекта:</b> %s<br>%s\n</p>\n",
			job.URL, html.EscapeString(job.Title), job.Price, html.EscapeString(job.Description))
		if i < len(jobs)-1 {
			fmt.Fprintf(&b, "<p>%s</p>\n", emailDivider)
		}
	}
	b.WriteString(emailHTMLEnd)
	return b.String()
}
