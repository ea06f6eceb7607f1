// Package pdfchat is a Go client for the pdfchat HTTP API.
//
//	client, _ := pdfchat.New("http://localhost:8000")
//	msg, _ := client.UploadFile(ctx, "manual.pdf")
//	reply, _ := client.Chat(ctx, "How do I reset the device?", "my-session")
//	results, _ := client.Query(ctx, pdfchat.QueryRequest{Query: "reset", TopK: 3})
//
// Errors returned by the server unwrap to the sentinels in this package,
// so callers can use errors.Is(err, pdfchat.ErrNotFound) and similar.
package pdfchat
