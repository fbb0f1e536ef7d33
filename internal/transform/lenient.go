// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package transform

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

var fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)

var pyLiterals = map[string]string{"None": "null", "True": "true", "False": "false"}

// normalizeLiteral rewrites the Python-literal dialect found in catalog
// exports into JSON. Single-quoted strings become double-quoted (escaping any
// embedded double quotes) and bare None/True/False become null/true/false.
// Text inside strings is left alone, so "True Romance" survives.
func normalizeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(s):
				next := s[i+1]
				i++
				if quote == '\'' && next == '\'' {
					b.WriteByte('\'')
					continue
				}
				b.WriteByte(c)
				b.WriteByte(next)
			case c == quote:
				b.WriteByte('"')
				quote = 0
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		if c == '\'' || c == '"' {
			quote = c
			b.WriteByte('"')
			continue
		}
		if word := literalAt(s, i); word != "" {
			b.WriteString(pyLiterals[word])
			i += len(word) - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// literalAt returns the Python literal starting at s[i], or "".
func literalAt(s string, i int) string {
	if i > 0 && isIdentByte(s[i-1]) {
		return ""
	}
	for word := range pyLiterals {
		end := i + len(word)
		if end <= len(s) && s[i:end] == word && (end == len(s) || !isIdentByte(s[end])) {
			return word
		}
	}
	return ""
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// DecodeEntries decodes a multi-valued field into its list of objects.
//
// The fallback chain, in order:
//  1. Empty text or "[]" yields no entries.
//  2. Text opening with '[' or '{' is normalized and strictly decoded.
//  3. Otherwise, or when strict decoding fails, every {...} fragment is
//     normalized and decoded on its own; fragments that fail are dropped.
//
// DecodeEntries never fails; unusable input yields an empty result.
func DecodeEntries(text string) []map[string]any {
	text = strings.TrimSpace(text)
	if text == "" || text == "[]" {
		return nil
	}

	if text[0] == '[' || text[0] == '{' {
		if entries, ok := decodeStrict(normalizeLiteral(text)); ok {
			return entries
		}
	}
	return salvageFragments(text)
}

func decodeStrict(s string) ([]map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}

	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, true
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func salvageFragments(text string) []map[string]any {
	fragments := fragmentPattern.FindAllString(text, -1)
	if len(fragments) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(fragments))
	for _, f := range fragments {
		var m map[string]any
		if err := json.Unmarshal([]byte(normalizeLiteral(f)), &m); err == nil && m != nil {
			out = append(out, m)
		}
	}
	return out
}

// SplitNames treats text as a comma-separated list of bare names. Tokens are
// stripped of list and quote delimiters; tokens that still look like
// key: value pairs are residue of a broken object and are discarded.
func SplitNames(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `[]{}'" `)
		if p == "" || strings.Contains(p, ":") {
			continue
		}
		out = append(out, p)
	}
	return out
}
