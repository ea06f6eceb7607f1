package chi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
)

const (
	pdfMIME         = "application/pdf"
	sniffBytes      = 3072
	multipartMemory = 8 << 20
)

// UploadPDF handles POST /upload-pdf. The file is stored under the upload
// directory for the duration of processing and removed afterwards.
func (s *Server) UploadPDF(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		s.handleDomainError(w, r, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.opts.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.handleDomainError(w, r, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		s.handleDomainError(w, r, domain.ErrNotPDF)
		return
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "cannot read upload: "+err.Error())
		return
	}
	head = head[:n]
	if mt := mimetype.Detect(head); !mt.Is(pdfMIME) {
		s.handleDomainError(w, r, fmt.Errorf("%w: content is %s", domain.ErrNotPDF, mt.String()))
		return
	}

	path, err := s.saveUpload(io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	defer s.removeUpload(r, path)

	source := filepath.ToSlash(filepath.Join(s.opts.UploadDir, name))
	ctx, usage := domain.NewContextWithUsage(r.Context())
	added, err := s.svc.Ingest.IngestAs(ctx, path, source)
	setTokenHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("PDF '%s' processed successfully. Added %d chunks.", name, added),
	})
}

// saveUpload copies src to a uniquely named file in the upload directory.
func (s *Server) saveUpload(src io.Reader) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+".pdf")
	dst, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

func (s *Server) removeUpload(r *http.Request, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.FromContext(r.Context(), s.logger).Warn("remove upload", zap.String("path", path), zap.Error(err))
	}
}
