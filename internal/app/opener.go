package app

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/rem79/fear-greed-index/internal/browser"
	"github.com/rem79/fear-greed-index/internal/config"
	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/scraper"
)

// Opener loads the target page. Intercepted responses are fed to ic when
// the opener has a network stream.
type Opener interface {
	Open(ctx context.Context, url string, ic *scraper.Interceptor) (scraper.Page, func(), error)

	// Intercepts reports whether Open feeds the interceptor
	Intercepts() bool
}

// NewOpener returns the opener for the configured browser mode
func NewOpener(cfg config.BrowserConfig) Opener {
	if cfg.Mode == config.ModeStatic {
		return &staticOpener{client: browser.NewHTTPClient(cfg.UserAgent, cfg.RunTimeout.Std())}
	}
	return &chromeOpener{cfg: cfg}
}

type chromeOpener struct {
	cfg config.BrowserConfig
}

func (o *chromeOpener) Intercepts() bool { return true }

func (o *chromeOpener) Open(ctx context.Context, url string, ic *scraper.Interceptor) (scraper.Page, func(), error) {
	cookies := make([]browser.Cookie, 0, len(o.cfg.Cookies))
	for _, c := range o.cfg.Cookies {
		cookies = append(cookies, browser.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}

	sess, err := browser.NewSession(ctx, browser.SessionOptions{
		Headless:          o.cfg.Headless,
		UserAgent:         o.cfg.UserAgent,
		SelectorWait:      o.cfg.SelectorWait.Std(),
		StabilizationWait: o.cfg.StabilizationWait.Std(),
		HideSelectors:     o.cfg.HideSelectors,
		Cookies:           cookies,
		Logger:            logger.Named("browser"),
	})
	if err != nil {
		return nil, func() {}, err
	}

	sess.OnResponse(ic.Matches, ic.Observe)

	if err := sess.Navigate(ctx, url); err != nil {
		return nil, sess.Close, err
	}
	return sess, sess.Close, nil
}

type staticOpener struct {
	client *resty.Client
}

func (o *staticOpener) Intercepts() bool { return false }

func (o *staticOpener) Open(ctx context.Context, url string, _ *scraper.Interceptor) (scraper.Page, func(), error) {
	doc, err := browser.FetchDocument(ctx, o.client, url)
	if err != nil {
		return nil, func() {}, err
	}
	return doc, func() {}, nil
}
