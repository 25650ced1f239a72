package netgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowListAllowsConfiguredPrefix(t *testing.T) {
	g, err := New(Config{AllowedURLPrefixes: []string{"https://api.example.com"}})
	require.NoError(t, err)
	require.NoError(t, g.Check(context.Background(), Request{Method: "GET", URL: "https://api.example.com/v1/users"}))
}

func TestAllowListDeniesOtherOrigin(t *testing.T) {
	g, err := New(Config{AllowedURLPrefixes: []string{"https://api.example.com"}})
	require.NoError(t, err)
	err = g.Check(context.Background(), Request{Method: "GET", URL: "https://evil.com/"})
	require.ErrorIs(t, err, ErrNetworkAccessDenied)
}

func TestMethodNotInDefaultAllowList(t *testing.T) {
	g, err := New(Config{AllowedURLPrefixes: []string{"https://api.example.com"}})
	require.NoError(t, err)
	err = g.Check(context.Background(), Request{Method: "POST", URL: "https://api.example.com/v1"})
	require.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestDangerousFullInternetOverridesEverything(t *testing.T) {
	g, err := New(Config{DangerouslyAllowFullInternetAccess: true})
	require.NoError(t, err)
	require.NoError(t, g.Check(context.Background(), Request{Method: "DELETE", URL: "https://anything.example/"}))
}

func TestIsAllowedOverridesList(t *testing.T) {
	g, err := New(Config{
		AllowedURLPrefixes: []string{"https://api.example.com"},
		IsAllowed: func(ctx context.Context, req Request) (bool, error) {
			return req.URL == "https://special.example/ok", nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, g.Check(context.Background(), Request{Method: "GET", URL: "https://special.example/ok"}))

	err = g.Check(context.Background(), Request{Method: "GET", URL: "https://api.example.com/v1"})
	require.ErrorIs(t, err, ErrNetworkAccessDenied)
}

func TestDefaultPortsElidedInPrefixMatch(t *testing.T) {
	g, err := New(Config{AllowedURLPrefixes: []string{"https://api.example.com:443/v1"}})
	require.NoError(t, err)
	require.NoError(t, g.Check(context.Background(), Request{Method: "GET", URL: "https://api.example.com/v1/x"}))
}

func TestTooManyRedirects(t *testing.T) {
	g, err := New(Config{AllowedURLPrefixes: []string{"https://api.example.com"}, MaxRedirects: 2})
	require.NoError(t, err)
	err = g.CheckRedirect(context.Background(), Request{Method: "GET", URL: "https://api.example.com/x"}, 3)
	require.True(t, errors.Is(err, ErrTooManyRedirects))
}
