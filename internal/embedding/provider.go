// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/mediagraph/internal/models"
)

// Provider turns texts into vectors. Implementations return exactly one
// vector per input text, in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// ErrResultMismatch is returned when a provider answers with the wrong
// number of vectors.
var ErrResultMismatch = errors.New("embedding result count mismatch")

func checkCount(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: sent %d texts, got %d vectors", ErrResultMismatch, len(texts), len(vectors))
	}
	return nil
}

// DefaultMaxTextChars bounds the text sent per movie.
const DefaultMaxTextChars = 2000

// BuildText renders the text embedded for a movie:
//
//	Title: <title>. Overview: <overview>. Genres: <g1, g2>
//
// The result is cut to maxChars runes.
func BuildText(m *models.MovieNode, genres []string, maxChars int) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(strings.TrimSpace(m.Title))
	b.WriteString(". Overview: ")
	b.WriteString(strings.TrimSpace(m.Overview))
	b.WriteString(". Genres: ")
	b.WriteString(strings.Join(genres, ", "))
	return truncateRunes(b.String(), maxChars)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		n = DefaultMaxTextChars
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
