package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rem79/fear-greed-index/internal/browser"
	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

func htmlPage(t *testing.T, markup string) Page {
	t.Helper()
	doc, err := browser.NewDocument(markup)
	require.NoError(t, err)
	return doc
}

var errPageGone = errors.New("target closed")

// brokenPage fails every query
type brokenPage struct{}

func (brokenPage) ElementText(context.Context, string) (string, bool, error) {
	return "", false, errPageGone
}

func (brokenPage) Elements(context.Context, string) ([]types.Element, error) {
	return nil, errPageGone
}

func (brokenPage) FullText(context.Context) (string, error) { return "", errPageGone }

func (brokenPage) RawMarkup(context.Context) (string, error) { return "", errPageGone }

// textPage serves fixed text and markup
type textPage struct {
	brokenPage
	text   string
	markup string
}

func (p textPage) FullText(context.Context) (string, error) { return p.text, nil }

func (p textPage) RawMarkup(context.Context) (string, error) { return p.markup, nil }

type fakeSnapshots struct {
	snap *types.Snapshot
	err  error
}

func (f fakeSnapshots) ReadSnapshot() (*types.Snapshot, error) {
	return f.snap, f.err
}

func nopLog() *logger.Logger {
	return logger.Nop()
}
