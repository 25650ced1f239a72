package netgate

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Response is the bounded result of a gated HTTP fetch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetch performs method/url against the gate's allow-list, following
// redirects itself (so every hop re-enters Check, per spec.md §4.7) and
// capping both the total elapsed time and the bytes read.
func (g *Gate) Fetch(ctx context.Context, method, rawURL string, body io.Reader, headers http.Header) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.TimeoutMS())*time.Millisecond)
	defer cancel()

	if err := g.Check(ctx, Request{Method: method, URL: rawURL}); err != nil {
		return nil, err
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if err := g.CheckRedirect(req.Context(), Request{Method: req.Method, URL: req.URL.String()}, len(via)); err != nil {
				return err
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, g.MaxResponseSize()+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > g.MaxResponseSize() {
		return nil, ErrResponseTooLarge
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
