package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

// How many ancestors are reported for each element
const maxAncestors = 8

// Elements with more text than this are reported with empty text. The
// strategies only care about short numbers and labels.
const maxElementText = 64

// Cookie is set before navigation
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// SessionOptions configures a chromedp session
type SessionOptions struct {
	Headless          bool
	UserAgent         string
	SelectorWait      time.Duration
	StabilizationWait time.Duration
	HideSelectors     []string
	Cookies           []Cookie
	Logger            *logger.Logger
}

// Session is one headless Chrome tab. It implements scraper.Page.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   SessionOptions
	log    *logger.Logger
}

// NewSession starts Chrome and enables network events on a fresh tab.
// The session lives until Close or until parent is cancelled.
func NewSession(parent context.Context, opts SessionOptions) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Named("browser")
	}
	if opts.SelectorWait <= 0 {
		opts.SelectorWait = 3 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, Options(opts.Headless, opts.UserAgent)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// The first Run launches the browser
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{ctx: browserCtx, cancel: cancel, opts: opts, log: log}, nil
}

// Close shuts the browser down
func (s *Session) Close() {
	s.cancel()
}

// OnResponse calls fn with the body of every response whose URL satisfies
// match. Bodies are fetched once loading finishes, off the event goroutine.
// Must be called before Navigate to see the page's first requests.
func (s *Session) OnResponse(match func(url string) bool, fn func(url string, body []byte)) {
	var mu sync.Mutex
	pending := make(map[network.RequestID]string)

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if ev.Response == nil || !match(ev.Response.URL) {
				return
			}
			mu.Lock()
			pending[ev.RequestID] = ev.Response.URL
			mu.Unlock()

		case *network.EventLoadingFinished:
			mu.Lock()
			url, ok := pending[ev.RequestID]
			delete(pending, ev.RequestID)
			mu.Unlock()
			if !ok {
				return
			}

			go func(id network.RequestID) {
				c := chromedp.FromContext(s.ctx)
				if c == nil || c.Target == nil {
					return
				}
				body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(s.ctx, c.Target))
				if err != nil {
					s.log.Debugw("failed to read response body", "url", url, "error", err)
					return
				}
				fn(url, body)
			}(ev.RequestID)
		}
	})
}

// Navigate loads url, hides popups and waits for the page to settle.
// The stabilization wait gives the page time to fetch and hydrate its data.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.actionCtx(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, s.injectCookies()); err != nil {
		return fmt.Errorf("failed to inject cookies: %w", err)
	}

	s.log.Infow("navigating", "url", url)
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}

	if err := chromedp.Run(runCtx, s.hidePopups()); err != nil {
		s.log.Debugw("failed to inject popup styles", "error", err)
	}

	if s.opts.StabilizationWait > 0 {
		s.log.Debugw("waiting for page to stabilize", "wait", s.opts.StabilizationWait)
		if err := chromedp.Run(runCtx, chromedp.Sleep(s.opts.StabilizationWait)); err != nil {
			return fmt.Errorf("interrupted while waiting for page: %w", err)
		}
	}

	return nil
}

// injectCookies sets the configured cookies in the browser context
func (s *Session) injectCookies() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range s.opts.Cookies {
			path := c.Path
			if path == "" {
				path = "/"
			}
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(path).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// hidePopups injects a style tag hiding consent banners and modals
func (s *Session) hidePopups() chromedp.Action {
	if len(s.opts.HideSelectors) == 0 {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}

	css := strings.Join(s.opts.HideSelectors, ", ") + " { display: none !important; } body { overflow: auto !important; }"
	literal, _ := json.Marshal(css)

	js := fmt.Sprintf(`(function() {
		const style = document.createElement('style');
		style.textContent = %s;
		(document.head || document.documentElement).appendChild(style);
		return true;
	})()`, literal)

	return chromedp.Evaluate(js, nil)
}

// actionCtx derives a chromedp context from the session that also honours
// the caller's deadline and cancellation, plus an optional timeout
func (s *Session) actionCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(s.ctx)
	cancels := []context.CancelFunc{cancel}

	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		c, cancelDeadline = context.WithDeadline(c, dl)
		cancels = append(cancels, cancelDeadline)
	}
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		c, cancelTimeout = context.WithTimeout(c, timeout)
		cancels = append(cancels, cancelTimeout)
	}

	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}
}

// ElementText returns the text of the first element matching selector,
// waiting at most SelectorWait for it to appear
func (s *Session) ElementText(ctx context.Context, selector string) (string, bool, error) {
	c, cancel := s.actionCtx(ctx, s.opts.SelectorWait)
	defer cancel()

	var text string
	err := chromedp.Run(c, chromedp.TextContent(selector, &text, chromedp.ByQuery))
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", selector, err)
	}

	text = strings.TrimSpace(text)
	return text, text != "", nil
}

const elementsJS = `(function(sel, depth, maxText) {
	const out = [];
	let nodes;
	try {
		nodes = document.querySelectorAll(sel);
	} catch (e) {
		return out;
	}
	nodes.forEach(el => {
		let text = (el.textContent || '').trim();
		const hasValueAttr = el.hasAttribute('aria-valuenow') || el.hasAttribute('data-value');
		if (text.length > maxText) {
			if (!hasValueAttr) return;
			text = '';
		}

		const attrs = {};
		for (const a of el.attributes) {
			if (a.name === 'class' || a.name === 'id' || a.name === 'data-value' || a.name.startsWith('aria-')) {
				attrs[a.name] = a.value;
			}
		}

		const ancestorClasses = [];
		const ancestorLabels = [];
		let p = el.parentElement;
		for (let i = 0; p && i < depth; i++, p = p.parentElement) {
			ancestorClasses.push(p.getAttribute('class') || '');
			ancestorLabels.push(p.getAttribute('aria-label') || '');
		}

		out.push({tag: el.tagName.toLowerCase(), text, attrs, ancestorClasses, ancestorLabels});
	});
	return out;
})(%s, %d, %d)`

// Elements returns every element matching selector
func (s *Session) Elements(ctx context.Context, selector string) ([]types.Element, error) {
	c, cancel := s.actionCtx(ctx, s.opts.SelectorWait)
	defer cancel()

	literal, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}

	var els []types.Element
	js := fmt.Sprintf(elementsJS, literal, maxAncestors, maxElementText)
	if err := chromedp.Run(c, chromedp.Evaluate(js, &els)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return els, nil
}

// FullText returns the rendered text of the page body
func (s *Session) FullText(ctx context.Context) (string, error) {
	c, cancel := s.actionCtx(ctx, 0)
	defer cancel()

	var text string
	if err := chromedp.Run(c, chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text)); err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

// RawMarkup returns the serialized DOM
func (s *Session) RawMarkup(ctx context.Context) (string, error) {
	c, cancel := s.actionCtx(ctx, 0)
	defer cancel()

	var html string
	if err := chromedp.Run(c, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		return "", fmt.Errorf("failed to read page markup: %w", err)
	}
	return html, nil
}
