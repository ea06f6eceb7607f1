package pdfchat

import (
	"context"
	"net/http"
	"net/url"
)

// Chat sends message within sessionID. An empty sessionID selects the server default.
// When answering fails server-side the reply text is an apology, not an error.
func (cl *Client) Chat(ctx context.Context, message, sessionID string) (ChatReply, error) {
	var out ChatReply
	hdr, err := cl.doJSON(ctx, call{op: "chat", method: http.MethodPost, path: "/chat"},
		map[string]string{"message": message, "session_id": sessionID}, &out)
	if err != nil {
		return ChatReply{}, err
	}
	out.CompletionTokens = headerInt(hdr, "X-Completion-Tokens")
	out.EmbeddingTokens = headerInt(hdr, "X-Embedding-Tokens")
	return out, nil
}

// DetectIntent classifies query.
func (cl *Client) DetectIntent(ctx context.Context, query string) (Intent, error) {
	var out struct {
		Intent Intent `json:"intent"`
	}
	if _, err := cl.doJSON(ctx, call{op: "detect_intent", method: http.MethodPost, path: "/detect-intent"},
		map[string]string{"query": query}, &out); err != nil {
		return "", err
	}
	return out.Intent, nil
}

// Sessions lists known session ids.
func (cl *Client) Sessions(ctx context.Context) ([]string, error) {
	var out struct {
		Sessions []string `json:"sessions"`
	}
	if _, err := cl.do(ctx, call{op: "list_sessions", method: http.MethodGet, path: "/sessions"}, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// History returns the recorded turns of a session, oldest first.
func (cl *Client) History(ctx context.Context, sessionID string) ([]Turn, error) {
	var out struct {
		Turns []Turn `json:"turns"`
	}
	path := "/sessions/" + url.PathEscape(sessionID)
	if _, err := cl.do(ctx, call{op: "get_session", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out.Turns, nil
}

// ClearSession empties a session's history.
func (cl *Client) ClearSession(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID)
	_, err := cl.do(ctx, call{op: "delete_session", method: http.MethodDelete, path: path}, nil)
	return err
}
