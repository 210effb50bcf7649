package newsletter

import (
	"errors"
	"html"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyContent означает пустую тему или письмо без видимого содержимого.
var ErrEmptyContent = errors.New("newsletter subject and content are required")

const previewToken = "preview"

// Sanitize очищает HTML письма: удаляет исполняемые элементы, обработчики on* и javascript: ссылки.
func Sanitize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	doc.Find("script, iframe, object, embed, form").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		attrs := node.Attr[:0]
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:") {
				continue
			}
			attrs = append(attrs, attr)
		}
		node.Attr = attrs
	})

	body := doc.Find("body")
	if strings.TrimSpace(body.Text()) == "" && body.Find("img").Length() == 0 {
		return "", ErrEmptyContent
	}

	return doc.Html()
}

// UnsubscribeURL возвращает ссылку отписки для токена.
func UnsubscribeURL(appBaseURL, token string) string {
	return appBaseURL + "/newsletter/unsubscribe?token=" + url.QueryEscape(token)
}

// withFooter добавляет в конец тела письма блок со ссылкой отписки.
func withFooter(document, unsubscribeURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	footer := `<div style="margin-top:40px;padding:20px;background:#f8f9fa;text-align:center;font-size:12px;color:#666;">` +
		`<p>You're receiving this because you subscribed to RecipesVault newsletter.</p>` +
		`<p><a href="` + html.EscapeString(unsubscribeURL) + `" style="color:#667eea;">Unsubscribe</a></p></div>`

	doc.Find("body").AppendHtml(footer)

	return doc.Html()
}

// textPart строит текстовую версию письма в markdown.
func textPart(document string) string {
	markdown, err := htmltomarkdown.ConvertString(document)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(markdown)
}
