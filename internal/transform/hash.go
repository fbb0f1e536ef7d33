// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package transform

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// StableID derives a node ID from a name that has no natural identifier.
//
// The ID is the absolute value, in decimal, of a 32-bit signed rolling hash
// (h = 31*h + c, wrapping on overflow) over the UTF-16 code units of the
// lowercased name. IDs previously written by the catalog depend on this exact
// scheme; do not change it.
func StableID(name string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(strings.ToLower(name))) {
		h = 31*h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 10)
}
