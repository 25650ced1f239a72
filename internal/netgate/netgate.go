// Package netgate implements the pure URL/method allow-list check that
// curl, the fetch polyfill, and any network-capable utility must route
// through (spec.md §3 NetworkConfig, §4.7).
package netgate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vercel-labs/just-bash/internal/invariant"
)

// Sentinel errors mapped by callers (curl maps them to its numeric exit
// codes per spec.md §7).
var (
	ErrNetworkAccessDenied = errors.New("network access denied")
	ErrRedirectNotAllowed  = errors.New("redirect not allowed")
	ErrMethodNotAllowed    = errors.New("method not allowed")
	ErrTooManyRedirects    = errors.New("too many redirects")
	ErrResponseTooLarge    = errors.New("response too large")
	ErrTimeout             = errors.New("request timed out")
)

// DefaultMethods is the allow-list default when AllowedMethods is empty.
var DefaultMethods = []string{"GET", "HEAD"}

const (
	DefaultMaxRedirects    = 20
	DefaultTimeoutMS       = 30_000
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// Request is the minimal shape IsAllowed needs to judge a single hop.
type Request struct {
	Method string
	URL    string
}

// IsAllowedFunc may be asynchronous (it receives a context) and, when
// configured, is authoritative over steps 3-4 of the algorithm.
type IsAllowedFunc func(ctx context.Context, req Request) (bool, error)

// Config is spec.md §3's NetworkConfig.
type Config struct {
	AllowedURLPrefixes                []string
	AllowedMethods                    []string
	DangerouslyAllowFullInternetAccess bool
	MaxRedirects                      int
	TimeoutMS                         int
	MaxResponseSize                   int64
	IsAllowed                         IsAllowedFunc
}

// Gate evaluates requests against a Config.
type Gate struct {
	cfg Config
}

// New validates prefixes at configuration time (spec.md §3) and returns a
// Gate, or an error describing the first invalid prefix.
func New(cfg Config) (*Gate, error) {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = append([]string{}, DefaultMethods...)
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.TimeoutMS == 0 {
		cfg.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.MaxResponseSize == 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}
	for _, p := range cfg.AllowedURLPrefixes {
		if _, err := normalizePrefix(p); err != nil {
			return nil, fmt.Errorf("invalid allowed_url_prefixes entry %q: %w", p, err)
		}
	}
	return &Gate{cfg: cfg}, nil
}

// Check runs the 4-step algorithm from spec.md §4.7 for a single hop.
func (g *Gate) Check(ctx context.Context, req Request) error {
	invariant.Precondition(req.URL != "", "req.URL")

	if g.cfg.DangerouslyAllowFullInternetAccess {
		return nil
	}

	if g.cfg.IsAllowed != nil {
		ok, err := g.cfg.IsAllowed(ctx, req)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNetworkAccessDenied
		}
		return nil
	}

	normalized, err := normalizePrefix(req.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkAccessDenied, err)
	}
	matched := false
	for _, prefix := range g.cfg.AllowedURLPrefixes {
		np, _ := normalizePrefix(prefix)
		if strings.HasPrefix(normalized, np) {
			matched = true
			break
		}
	}
	if !matched {
		return ErrNetworkAccessDenied
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	allowed := false
	for _, m := range g.cfg.AllowedMethods {
		if strings.EqualFold(m, method) {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrMethodNotAllowed
	}
	return nil
}

// CheckRedirect is called for every redirect hop; hopIndex is 1-based
// (the first redirect is hop 1).
func (g *Gate) CheckRedirect(ctx context.Context, req Request, hopIndex int) error {
	if hopIndex > g.cfg.MaxRedirects {
		return ErrTooManyRedirects
	}
	if err := g.Check(ctx, req); err != nil {
		if errors.Is(err, ErrNetworkAccessDenied) || errors.Is(err, ErrMethodNotAllowed) {
			return fmt.Errorf("%w: %v", ErrRedirectNotAllowed, err)
		}
		return err
	}
	return nil
}

func (g *Gate) MaxResponseSize() int64 { return g.cfg.MaxResponseSize }
func (g *Gate) TimeoutMS() int         { return g.cfg.TimeoutMS }
func (g *Gate) MaxRedirects() int      { return g.cfg.MaxRedirects }

// normalizePrefix reconstructs scheme://host[:port]path with default ports
// elided, as required for the literal-prefix comparison in spec.md §4.7.
func normalizePrefix(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("url must be absolute: %q", raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	port := u.Port()
	if port != "" {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			port = ""
		}
	}
	hostport := host
	if port != "" {
		hostport = host + ":" + port
	}
	return scheme + "://" + hostport + u.EscapedPath(), nil
}
