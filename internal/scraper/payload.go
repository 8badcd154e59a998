package scraper

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rem79/fear-greed-index/internal/types"
)

// Loose field patterns used when a payload has no recognizable shape.
// Matches `"score":42`, `"score": 42.7` and `"score":"42"`.
var (
	scoreFieldRe  = regexp.MustCompile(`"score"\s*:\s*"?(-?\d+(?:\.\d+)?)`)
	ratingFieldRe = regexp.MustCompile(`"rating"\s*:\s*"([A-Za-z][A-Za-z _-]*)"`)
)

// payloadResult is what the three-tier extraction found in one payload
type payloadResult struct {
	attempt  types.Attempt
	rejected int // in-range check failures seen along the way
}

// extractPayload applies, in order:
//
//	a. a nested object named key exposing score and rating
//	b. a top-level score (and optional rating)
//	c. a loose scan for "score": <number> and "rating": "<word>"
//
// Sources are tagged prefix+"/nested", "/top-level" or "/scan".
func extractPayload(raw, key string, prefix types.Provenance) payloadResult {
	var res payloadResult

	if gjson.Valid(raw) {
		doc := gjson.Parse(raw)

		if key != "" {
			if nested, ok := findObject(doc, key, maxBlobDepth); ok {
				if a, ok := fromObject(nested, prefix+"/nested", &res.rejected); ok {
					res.attempt = a
					return res
				}
			}
		}

		if doc.IsObject() {
			if a, ok := fromObject(doc, prefix+"/top-level", &res.rejected); ok {
				res.attempt = a
				return res
			}
		}
	}

	a, rejected := scanFields(raw, prefix+"/scan")
	res.attempt = a
	res.rejected += rejected
	return res
}

// fromObject reads score and rating fields off a JSON object
func fromObject(obj gjson.Result, src types.Provenance, rejected *int) (types.Attempt, bool) {
	field := obj.Get("score")
	if !field.Exists() {
		return types.Attempt{}, false
	}

	score, ok := scoreValue(field)
	if !ok {
		*rejected++
		return types.Attempt{}, false
	}

	a := types.Attempt{Score: score, HasScore: true, Source: src}
	if r := obj.Get("rating"); r.Type == gjson.String {
		a.RawRating = r.Str
		if rating, ok := types.NormalizeRating(r.Str); ok {
			a.Rating = rating
		}
	}
	return a, true
}

func scoreValue(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		return types.ScoreFromFloat(v.Num)
	case gjson.String:
		return types.ParseScore(v.Str)
	default:
		return 0, false
	}
}

// scanFields looks for the first in-range "score" and, independently, the
// first recognizable "rating" anywhere in raw
func scanFields(raw string, src types.Provenance) (types.Attempt, int) {
	a := types.NoData(src)
	rejected := 0

	for _, m := range scoreFieldRe.FindAllStringSubmatch(raw, -1) {
		if score, ok := types.ParseScore(m[1]); ok {
			a.Score = score
			a.HasScore = true
			break
		}
		rejected++
	}

	for _, m := range ratingFieldRe.FindAllStringSubmatch(raw, -1) {
		if rating, ok := types.NormalizeRating(m[1]); ok {
			a.Rating = rating
			a.RawRating = m[1]
			break
		}
	}

	return a, rejected
}

// Deepest nesting findObject will descend into
const maxBlobDepth = 12

// findObject returns the first object stored under key, looking at the top
// level first and then depth-first through nested objects and arrays.
// Server-rendered blobs bury the indicator several levels down.
func findObject(doc gjson.Result, key string, depth int) (gjson.Result, bool) {
	if v := doc.Get(gjsonKey(key)); v.IsObject() {
		return v, true
	}
	if depth <= 0 || !(doc.IsObject() || doc.IsArray()) {
		return gjson.Result{}, false
	}

	var found gjson.Result
	ok := false
	doc.ForEach(func(_, child gjson.Result) bool {
		if child.IsObject() || child.IsArray() {
			found, ok = findObject(child, key, depth-1)
		}
		return !ok
	})
	return found, ok
}

var gjsonEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// gjsonKey escapes a literal object key for use as a gjson path
func gjsonKey(key string) string {
	return gjsonEscaper.Replace(key)
}
