package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/rem79/fear-greed-index/internal/types"
)

// Document is a static page parsed with goquery. It implements scraper.Page
// for plain HTTP fetches, where nothing is hydrated and no network stream
// exists, so every lookup is answered immediately.
type Document struct {
	doc    *goquery.Document
	markup string
}

// NewDocument parses markup
func NewDocument(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return &Document{doc: doc, markup: markup}, nil
}

// NewHTTPClient returns a resty client that looks like a desktop browser
func NewHTTPClient(userAgent string, timeout time.Duration) *resty.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
}

// FetchDocument GETs url and parses the response body
func FetchDocument(ctx context.Context, client *resty.Client, url string) (*Document, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode())
	}
	return NewDocument(resp.String())
}

func (d *Document) ElementText(_ context.Context, selector string) (string, bool, error) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	text := strings.TrimSpace(sel.Text())
	return text, text != "", nil
}

func (d *Document) Elements(_ context.Context, selector string) ([]types.Element, error) {
	var els []types.Element

	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		_, hasNow := s.Attr("aria-valuenow")
		_, hasValue := s.Attr("data-value")
		if len(text) > maxElementText {
			if !hasNow && !hasValue {
				return
			}
			text = ""
		}

		el := types.Element{
			Tag:   goquery.NodeName(s),
			Text:  text,
			Attrs: make(map[string]string),
		}
		for _, a := range s.Nodes[0].Attr {
			if a.Key == "class" || a.Key == "id" || a.Key == "data-value" || strings.HasPrefix(a.Key, "aria-") {
				el.Attrs[a.Key] = a.Val
			}
		}

		s.Parents().EachWithBreak(func(i int, p *goquery.Selection) bool {
			if i >= maxAncestors {
				return false
			}
			el.AncestorClasses = append(el.AncestorClasses, p.AttrOr("class", ""))
			el.AncestorLabels = append(el.AncestorLabels, p.AttrOr("aria-label", ""))
			return true
		})

		els = append(els, el)
	})

	return els, nil
}

// FullText returns the body text without scripts and styles, whitespace collapsed
func (d *Document) FullText(_ context.Context) (string, error) {
	body := d.doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " "), nil
}

func (d *Document) RawMarkup(_ context.Context) (string, error) {
	return d.markup, nil
}
