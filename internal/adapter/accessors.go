// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Accessor pulls one candidate string out of a parsed JSON document.
// It reports false unless the value is a string that is non-empty after trimming.
type Accessor struct {
	// Path is the dot-path the accessor reads, used as the debug label.
	Path string
	Get  func(doc gjson.Result) (string, bool)
}

// PathAccessor returns an Accessor reading the string at a dot-path.
func PathAccessor(path string) Accessor {
	return Accessor{
		Path: path,
		Get: func(doc gjson.Result) (string, bool) {
			v, ok := WalkPath(doc, path)
			if !ok {
				return "", false
			}
			return stringValue(v)
		},
	}
}

// labeledAccessor reads path but reports label as its debug path.
func labeledAccessor(label, path string) Accessor {
	a := PathAccessor(path)
	a.Path = label
	return a
}

// FallbackAccessors is probed in order when a custom provider's shape is unknown.
var FallbackAccessors = []Accessor{
	PathAccessor("text"),
	PathAccessor("content"),
	PathAccessor("result"),
	PathAccessor("response"),
	PathAccessor("output"),
	PathAccessor("generated_text"),
	PathAccessor("choices.0.text"),
	PathAccessor("choices.0.message.content"),
	PathAccessor("results.0.content"),
	PathAccessor("results.0.text"),
	PathAccessor("generations.0.text"),
}

// FirstMatch applies accessors in order and returns the first hit with its path.
func FirstMatch(doc gjson.Result, accessors []Accessor) (text, path string, ok bool) {
	for _, a := range accessors {
		if s, found := a.Get(doc); found {
			return s, a.Path, true
		}
	}
	return "", "", false
}

// WalkPath navigates doc one dot-separated segment at a time. Numeric segments
// index arrays; every other segment is an exact object key, so gjson query
// syntax inside a user path has no special meaning.
func WalkPath(doc gjson.Result, path string) (gjson.Result, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return gjson.Result{}, false
	}

	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch {
		case cur.IsArray():
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 {
				return gjson.Result{}, false
			}
			items := cur.Array()
			if idx >= len(items) {
				return gjson.Result{}, false
			}
			cur = items[idx]
		case cur.IsObject():
			next, ok := cur.Map()[seg]
			if !ok {
				return gjson.Result{}, false
			}
			cur = next
		default:
			return gjson.Result{}, false
		}
	}
	return cur, true
}

// stringValue accepts only JSON strings with non-blank content.
func stringValue(v gjson.Result) (string, bool) {
	if v.Type != gjson.String {
		return "", false
	}
	s := strings.TrimSpace(v.Str)
	return s, s != ""
}
