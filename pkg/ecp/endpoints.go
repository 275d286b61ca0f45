package ecp

import (
	"net/url"
)

// Query endpoints
const (
	PathDeviceInfo  = "/query/device-info"
	PathMediaPlayer = "/query/media-player"
	PathApps        = "/query/apps"
	PathActiveApp   = "/query/active-app"
	PathAppUI       = "/query/app-ui"
)

// LaunchPath builds /launch/<code> with optional deep-link parameters.
func LaunchPath(code, contentID, mediaType string) string {
	return "/launch/" + url.PathEscape(code) + deepLinkQuery(contentID, mediaType)
}

// InputPath builds /input/<code> with optional deep-link parameters.
func InputPath(code, contentID, mediaType string) string {
	return "/input/" + url.PathEscape(code) + deepLinkQuery(contentID, mediaType)
}

// InstallPath builds /install/<code>.
func InstallPath(code string) string {
	return "/install/" + url.PathEscape(code)
}

// KeyPath builds /keypress|keydown|keyup/<code>. The code is used verbatim
// so literal codes such as LIT_%20 keep their escaping.
func KeyPath(keyType KeyType, code string) string {
	return "/" + string(keyType) + "/" + code
}

func deepLinkQuery(contentID, mediaType string) string {
	q := url.Values{}
	if contentID != "" {
		q.Set("contentId", contentID)
	}
	if mediaType != "" {
		q.Set("mediaType", mediaType)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
