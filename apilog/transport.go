// Package apilog persists aggregator API traffic so failed quotes and swaps
// can be diagnosed after the fact.
package apilog

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/openbridge/swapd/db"
)

const maxBodySize = 64 * 1024 // 64KB

// Transport is an http.RoundTripper that records every aggregator request and
// response to the store. Writes happen asynchronously and never block or fail
// the request itself.
type Transport struct {
	inner    http.RoundTripper
	provider string
	store    *db.Store
}

// NewHTTPClient returns an http.Client whose traffic is logged under the
// given provider tag. A nil store disables logging but keeps the timeout.
func NewHTTPClient(provider string, store *db.Store) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if store != nil {
		client.Transport = &Transport{
			inner:    http.DefaultTransport,
			provider: provider,
			store:    store,
		}
	}
	return client
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	params := db.InsertAPIRequestParams{
		Provider: t.provider,
		Method:   req.Method,
		Url:      req.URL.String(),
	}
	params.RequestBody = toNullString(captureBody(&req.Body))
	params.RequestHeaders = toNullString(headerString(req.Header))

	start := time.Now()
	resp, err := t.inner.RoundTrip(req)
	params.DurationMs = sql.NullInt64{Int64: time.Since(start).Milliseconds(), Valid: true}

	if err != nil {
		params.Error = toNullString(err.Error())
	} else {
		params.ResponseStatus = sql.NullInt64{Int64: int64(resp.StatusCode), Valid: true}
		params.ResponseHeaders = toNullString(headerString(resp.Header))
		params.ResponseBody = toNullString(captureBody(&resp.Body))
	}

	go func() {
		if dbErr := t.store.InsertAPIRequest(context.Background(), params); dbErr != nil {
			log.Printf("apilog: failed to log %s %s: %v", params.Method, params.Url, dbErr)
		}
	}()

	return resp, err
}

// captureBody drains and replaces a body so it can be both logged and read
// downstream. Bodies beyond maxBodySize are truncated in the log only.
func captureBody(body *io.ReadCloser) string {
	if body == nil || *body == nil {
		return ""
	}
	data, _ := io.ReadAll(*body)
	*body = io.NopCloser(bytes.NewReader(data))
	if len(data) > maxBodySize {
		return string(data[:maxBodySize]) + "...[truncated]"
	}
	return string(data)
}

func headerString(h http.Header) string {
	var buf bytes.Buffer
	h.Write(&buf)
	return buf.String()
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
