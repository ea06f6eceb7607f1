package pdfchat

import (
	"context"
	"net/http"
	"net/url"
)

// Health checks the health of the server and its dependencies.
// A degraded server yields an error matching ErrUnavailable.
func (cl *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if _, err := cl.do(ctx, call{op: "health", method: http.MethodGet, path: "/health"}, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}

// Usage returns token budgets for the given period.
func (cl *Client) Usage(ctx context.Context, period UsagePeriod) (UsageReport, error) {
	var out UsageReport
	q := url.Values{}
	if period != "" {
		q.Set("period", string(period))
	}
	if _, err := cl.do(ctx, call{op: "usage", method: http.MethodGet, path: "/usage", query: q}, &out); err != nil {
		return UsageReport{}, err
	}
	return out, nil
}

// IndexStats reports the indexed chunk count.
func (cl *Client) IndexStats(ctx context.Context) (IndexStats, error) {
	var out IndexStats
	if _, err := cl.do(ctx, call{op: "index_stats", method: http.MethodGet, path: "/index"}, &out); err != nil {
		return IndexStats{}, err
	}
	return out, nil
}

// ResetIndex deletes every indexed chunk. Requires WithAPIKey when the server has admin keys.
func (cl *Client) ResetIndex(ctx context.Context) error {
	_, err := cl.do(ctx, call{op: "reset_index", method: http.MethodDelete, path: "/index", auth: true}, nil)
	return err
}
