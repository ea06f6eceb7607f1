// Package pdfextract turns PDF files into page-tagged text chunks.
package pdfextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/chunker"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Extractor reads PDF pages and splits each page into chunks.
// Chunking restarts on every page, so a sentence spanning two pages
// ends up in two different chunks.
type Extractor struct {
	splitter *chunker.Splitter
	logger   *zap.Logger
}

// New creates an Extractor.
func New(splitter *chunker.Splitter, logger *zap.Logger) *Extractor {
	return &Extractor{splitter: splitter, logger: logger}
}

// Extract returns the chunks of the PDF at path. Failures are logged and
// yield an empty slice.
func (e *Extractor) Extract(ctx context.Context, path string) []domain.Chunk {
	chunks, err := e.ExtractResult(ctx, path)
	if err != nil {
		e.logger.Error("PDF extraction failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	return chunks
}

// ExtractResult is Extract with the failure reported to the caller.
// A readable PDF without text returns no chunks and no error.
func (e *Extractor) ExtractResult(ctx context.Context, path string) ([]domain.Chunk, error) {
	pages, err := readPages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, path, err)
	}

	chunks := ChunkPages(e.splitter, path, pages)
	e.logger.Debug("PDF extracted",
		zap.String("path", path),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// ChunkPages splits each page separately. pages[i] is page i+1.
// Pages and chunks that contain only whitespace are dropped.
func ChunkPages(splitter *chunker.Splitter, source string, pages []string) []domain.Chunk {
	var out []domain.Chunk
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, p := range splitter.Split(text) {
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			out = append(out, domain.Chunk{
				Content:  p.Content,
				Metadata: domain.Metadata{Source: source, Page: i + 1},
				Start:    p.Start,
				End:      p.End,
			})
		}
	}
	return out
}

// readPages returns the plain text of every page. The parser panics on some
// malformed input, so panics are turned into errors.
func readPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
