package pdfchat

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Query runs a raw similarity search.
func (cl *Client) Query(ctx context.Context, req QueryRequest) ([]QueryResult, error) {
	var out struct {
		Results []QueryResult `json:"results"`
	}
	if _, err := cl.doJSON(ctx, call{op: "query", method: http.MethodPost, path: "/query"}, req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// UploadPDF streams a PDF named name to the server and returns its confirmation message.
func (cl *Client) UploadPDF(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	var out struct {
		Message string `json:"message"`
	}
	_, err := cl.do(ctx, call{
		op:          "upload_pdf",
		method:      http.MethodPost,
		path:        "/upload-pdf",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &out)
	_ = pr.Close()
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// UploadFile uploads the PDF at path.
func (cl *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pdfchat: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return cl.UploadPDF(ctx, filepath.Base(path), f)
}
