package browser

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const gaugeMarkup = `<html><head><style>.x{}</style></head><body>
<div class="market-fng-gauge" aria-label="Fear and Greed Index">
	<div class="market-fng-gauge__dial">
		<span class="market-fng-gauge__dial-number-value" data-value="42">42</span>
	</div>
	<div class="market-fng-gauge__label">Fear</div>
</div>
<script>window.tracking = true;</script>
<p>Markets   closed
	mixed.</p>
</body></html>`

func TestDocument_ElementText(t *testing.T) {
	doc, err := NewDocument(gaugeMarkup)
	require.NoError(t, err)
	ctx := context.Background()

	text, ok, err := doc.ElementText(ctx, ".market-fng-gauge__dial-number-value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", text)

	_, ok, err = doc.ElementText(ctx, ".missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_Elements(t *testing.T) {
	doc, err := NewDocument(gaugeMarkup)
	require.NoError(t, err)

	els, err := doc.Elements(context.Background(), "span")
	require.NoError(t, err)
	require.Len(t, els, 1)

	el := els[0]
	assert.Equal(t, "span", el.Tag)
	assert.Equal(t, "42", el.Text)
	assert.Equal(t, "42", el.Attr("data-value"))
	require.GreaterOrEqual(t, len(el.AncestorClasses), 2)
	assert.Equal(t, "market-fng-gauge__dial", el.AncestorClasses[0])
	assert.Equal(t, "market-fng-gauge", el.AncestorClasses[1])
	assert.Equal(t, "Fear and Greed Index", el.AncestorLabels[1])
}

func TestDocument_ElementsSkipsLongText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	doc, err := NewDocument(`<html><body><p>` + long + `</p><div aria-valuenow="12">` + long + `</div></body></html>`)
	require.NoError(t, err)

	els, err := doc.Elements(context.Background(), "p, div")
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "div", els[0].Tag)
	assert.Empty(t, els[0].Text)
	assert.Equal(t, "12", els[0].Attr("aria-valuenow"))
}

func TestDocument_FullTextDropsScripts(t *testing.T) {
	doc, err := NewDocument(gaugeMarkup)
	require.NoError(t, err)

	text, err := doc.FullText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42 Fear Markets closed mixed.", text)

	raw, err := doc.RawMarkup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gaugeMarkup, raw)
}

func TestFetchDocument(t *testing.T) {
	var gotUA string
	client := NewHTTPClient("", 5*time.Second)
	client.SetTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/html"}},
			Body:       io.NopCloser(strings.NewReader(gaugeMarkup)),
			Request:    req,
		}, nil
	}))

	doc, err := FetchDocument(context.Background(), client, "https://www.cnn.com/markets/fear-and-greed")
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)

	text, ok, err := doc.ElementText(context.Background(), ".market-fng-gauge__label")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Fear", text)
}

func TestFetchDocument_HTTPError(t *testing.T) {
	client := NewHTTPClient("test-agent", 5*time.Second)
	client.SetTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(strings.NewReader("denied")),
			Request:    req,
		}, nil
	}))

	_, err := FetchDocument(context.Background(), client, "https://www.cnn.com/markets/fear-and-greed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
