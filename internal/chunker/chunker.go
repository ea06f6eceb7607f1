// Package chunker splits text into overlapping, size-bounded pieces.
//
// Boundaries prefer paragraph breaks, then line breaks, then sentence ends,
// then spaces, and fall back to hard cuts on rune boundaries. Sizes are
// measured in bytes. Every piece records its byte offsets in the input, so
// the original text can always be rebuilt from the pieces.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidParams is returned by New for a size/overlap pair that cannot produce chunks.
var ErrInvalidParams = errors.New("invalid chunker parameters")

// DefaultSeparators are tried in order; the empty separator means a hard cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Piece is one chunk of the input text.
type Piece struct {
	Content string
	Start   int // byte offset of Content in the input
	End     int // Start + len(Content)
}

type span struct {
	start, end int
}

// Splitter is a recursive character splitter. It is safe for concurrent use.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// New creates a Splitter producing pieces of at most size bytes that share
// at most overlap bytes with their neighbours.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParams, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidParams, size, overlap)
	}
	return &Splitter{size: size, overlap: overlap, separators: DefaultSeparators}, nil
}

// Size returns the maximum piece size in bytes.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the maximum overlap between neighbouring pieces in bytes.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the pieces of text in source order. Empty text yields nil.
func (s *Splitter) Split(text string) []Piece {
	if text == "" {
		return nil
	}
	atoms := s.atoms(text, 0, len(text), 0, nil)
	return s.merge(text, atoms)
}

// atoms breaks text[start:end] into contiguous spans no longer than size,
// descending through the separator list only where a span is too long.
// Separators stay attached to the span they terminate.
func (s *Splitter) atoms(text string, start, end, level int, out []span) []span {
	if end-start <= s.size {
		return append(out, span{start, end})
	}
	if level >= len(s.separators) || s.separators[level] == "" {
		return s.hardCut(text, start, end, out)
	}

	sep := s.separators[level]
	if !strings.Contains(text[start:end], sep) {
		return s.atoms(text, start, end, level+1, out)
	}

	pos := start
	for pos < end {
		pe := end
		if i := strings.Index(text[pos:end], sep); i >= 0 {
			pe = pos + i + len(sep)
		}
		out = s.atoms(text, pos, pe, level+1, out)
		pos = pe
	}
	return out
}

func (s *Splitter) hardCut(text string, start, end int, out []span) []span {
	pos := start
	for pos < end {
		cut := pos + s.size
		if cut >= end {
			cut = end
		} else {
			for cut > pos && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == pos {
				// size is smaller than a single rune
				cut = pos + s.size
				for cut < end && !utf8.RuneStart(text[cut]) {
					cut++
				}
			}
		}
		out = append(out, span{pos, cut})
		pos = cut
	}
	return out
}

// merge packs atoms greedily into pieces. A new piece starts on the earliest
// atom of the previous piece that keeps the overlap within bounds and still
// leaves room for the next unseen atom.
func (s *Splitter) merge(text string, atoms []span) []Piece {
	var pieces []Piece
	first := 0
	for first < len(atoms) {
		start := atoms[first].start
		last := first
		for last+1 < len(atoms) && atoms[last+1].end-start <= s.size {
			last++
		}
		end := atoms[last].end
		pieces = append(pieces, Piece{Content: text[start:end], Start: start, End: end})

		next := last + 1
		if next >= len(atoms) {
			break
		}
		nf := next
		for j := first + 1; j <= last; j++ {
			if end-atoms[j].start <= s.overlap && atoms[next].end-atoms[j].start <= s.size {
				nf = j
				break
			}
		}
		first = nf
	}
	return pieces
}

// Reconstruct rebuilds the text the pieces were split from.
func Reconstruct(pieces []Piece) string {
	if len(pieces) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(pieces[0].Content)
	for i := 1; i < len(pieces); i++ {
		shared := pieces[i-1].End - pieces[i].Start
		if shared < 0 {
			shared = 0
		}
		b.WriteString(pieces[i].Content[shared:])
	}
	return b.String()
}
