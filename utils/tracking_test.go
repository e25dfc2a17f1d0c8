package utils

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingToken(t *testing.T) {
	token := TrackingToken("secret", "abc@example.org")
	assert.Len(t, token, 20)
	assert.Equal(t, token, TrackingToken("secret", "abc@example.org"))
	assert.True(t, VerifyTrackingToken("secret", "abc@example.org", token))
	assert.False(t, VerifyTrackingToken("secret", "other@example.org", token))
	assert.False(t, VerifyTrackingToken("other", "abc@example.org", token))
}

func TestInjectTracking(t *testing.T) {
	html := `<html><body><a href="https://example.com/course?a=1&amp;b=2">Course</a>` +
		`<a href="https://app.example.com/unsubscribe?email=x">Unsubscribe</a>` +
		`<a href="mailto:hi@example.com">Mail</a></body></html>`

	out := InjectTracking(html, "https://app.example.com", "secret", "m1@example.org")

	assert.Contains(t, out, `https://app.example.com/track/click/m1@example.org/`)
	assert.Contains(t, out, `https://app.example.com/unsubscribe?email=x`)
	assert.Contains(t, out, `mailto:hi@example.com`)
	assert.NotContains(t, out, `href="https://example.com/course`)

	pixelAt := strings.Index(out, "/track/open/")
	bodyAt := strings.Index(out, "</body>")
	require.True(t, pixelAt > 0)
	assert.Less(t, pixelAt, bodyAt)
}

func TestClickTrackURLRoundTrip(t *testing.T) {
	original := "https://example.com/course?a=1&b=2"
	tracked := GenerateClickTrackURL("https://app.example.com", "secret", "m1", original)

	u, err := url.Parse(tracked)
	require.NoError(t, err)
	assert.Equal(t, original, u.Query().Get("url"))
	assert.True(t, strings.HasPrefix(u.Path, "/track/click/m1/"))
}
