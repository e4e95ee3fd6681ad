package imageprocessing

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLPolicyValidate(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		policy        URLPolicy
		errorContains string
	}{
		{name: "https", url: "https://example.com/image.png"},
		{name: "http", url: "http://example.com/image.png"},
		{name: "not a url", url: "not-a-url", errorContains: "unsupported URL scheme"},
		{name: "ftp", url: "ftp://example.com/file.txt", errorContains: "unsupported URL scheme"},
		{name: "missing hostname", url: "http:///path", errorContains: "URL missing hostname"},
		{
			name:          "blocked domain",
			url:           "https://evil.com/image.png",
			policy:        URLPolicy{BlockedDomains: []string{"evil.com"}},
			errorContains: "is blocked",
		},
		{
			name:          "blocked subdomain",
			url:           "https://cdn.evil.com/image.png",
			policy:        URLPolicy{BlockedDomains: []string{"evil.com"}},
			errorContains: "is blocked",
		},
		{
			name:   "lookalike domain allowed",
			url:    "https://notevil.com/image.png",
			policy: URLPolicy{BlockedDomains: []string{"evil.com"}},
		},
		{
			name:          "private literal",
			url:           "http://192.168.1.10/image.png",
			policy:        URLPolicy{BlockPrivateIPs: true},
			errorContains: "private IP",
		},
		{
			name: "private literal allowed when not blocking",
			url:  "http://192.168.1.10/image.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate(tt.url)
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	for _, ip := range []string{"10.1.2.3", "172.16.0.1", "192.168.0.1", "127.0.0.1", "169.254.1.1", "::1", "fe80::1", "fd00::1"} {
		assert.True(t, isPrivateIP(net.ParseIP(ip)), ip)
	}
	for _, ip := range []string{"8.8.8.8", "172.32.0.1", "2001:4860:4860::8888"} {
		assert.False(t, isPrivateIP(net.ParseIP(ip)), ip)
	}
}

func TestURLPolicyFromEnv(t *testing.T) {
	t.Setenv("BLOCKED_DOMAINS", " Evil.com, ,bad.org")
	t.Setenv("BLOCK_PRIVATE_IPS", "true")

	p := URLPolicyFromEnv()
	assert.True(t, p.BlockPrivateIPs)
	assert.Equal(t, []string{"evil.com", "bad.org"}, p.BlockedDomains)
}

func pngServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadImageFromURL(t *testing.T) {
	srv := pngServer(t)

	img, format, err := LoadImageFromURL(context.Background(), srv.URL+"/img.png", time.Second, URLPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, _, err = LoadImageFromURL(context.Background(), srv.URL+"/missing", time.Second, URLPolicy{})
	assert.ErrorContains(t, err, "HTTP 404")

	_, _, err = LoadImageFromURL(context.Background(), srv.URL+"/img.png", time.Second, URLPolicy{BlockPrivateIPs: true})
	assert.ErrorContains(t, err, "private IP")

	_, _, err = LoadImageFromURL(context.Background(), srv.URL+"/img.png", time.Second, URLPolicy{MaxBytes: 10})
	assert.Error(t, err)
}
