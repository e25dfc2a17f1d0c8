package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// TrackingToken signs a message ID so tracking links cannot be forged.
func TrackingToken(secret, messageID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))[:20]
}

// VerifyTrackingToken reports whether token belongs to messageID.
func VerifyTrackingToken(secret, messageID, token string) bool {
	return hmac.Equal([]byte(TrackingToken(secret, messageID)), []byte(token))
}

// GenerateTrackingPixelURL generates a tracking pixel URL for email opens
func GenerateTrackingPixelURL(baseURL, secret, messageID string) string {
	token := TrackingToken(secret, messageID)
	return fmt.Sprintf("%s/track/open/%s/%s", baseURL, url.PathEscape(messageID), token)
}

// GenerateClickTrackURL generates a tracked URL for links
func GenerateClickTrackURL(baseURL, secret, messageID, originalURL string) string {
	token := TrackingToken(secret, messageID)
	encodedURL := url.QueryEscape(originalURL)
	return fmt.Sprintf("%s/track/click/%s/%s?url=%s", baseURL, url.PathEscape(messageID), token, encodedURL)
}

// InjectTracking adds an open pixel and rewrites links for click tracking.
func InjectTracking(htmlContent, baseURL, secret, messageID string) string {
	pixelURL := GenerateTrackingPixelURL(baseURL, secret, messageID)
	trackingPixel := fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`, html.EscapeString(pixelURL))

	modifiedHTML := injectClickTracking(htmlContent, baseURL, secret, messageID)

	if i := strings.LastIndex(modifiedHTML, "</body>"); i >= 0 {
		return modifiedHTML[:i] + trackingPixel + modifiedHTML[i:]
	}
	return modifiedHTML + trackingPixel
}

// shouldTrack leaves unsubscribe and non-web links alone.
func shouldTrack(link string) bool {
	lower := strings.ToLower(link)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return !strings.Contains(lower, "/unsubscribe")
}

func injectClickTracking(content, baseURL, secret, messageID string) string {
	// This is a simplified version. Consider using an HTML parser for production
	startTag := "<a href=\""
	endTag := "\""
	offset := 0

	for {
		startIdx := strings.Index(content[offset:], startTag)
		if startIdx == -1 {
			break
		}
		startIdx += offset + len(startTag)

		endIdx := strings.Index(content[startIdx:], endTag)
		if endIdx == -1 {
			break
		}
		endIdx += startIdx

		originalURL := html.UnescapeString(content[startIdx:endIdx])
		if !shouldTrack(originalURL) {
			offset = endIdx
			continue
		}
		trackedURL := html.EscapeString(GenerateClickTrackURL(baseURL, secret, messageID, originalURL))

		content = content[:startIdx] + trackedURL + content[endIdx:]
		offset = startIdx + len(trackedURL)
	}

	return content
}
