// Package textutil provides transcript normalization and the glyph tables
// shared by the segmenter and the deterministic pattern matcher.
package textutil
