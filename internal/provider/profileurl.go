package provider

import (
	"fmt"
	"strings"
)

// BuildProfileURL returns the canonical public profile URL for a platform
// and username, or "" when the platform has no known URL scheme.
func BuildProfileURL(platform, username string) string {
	if platform == "" || username == "" {
		return ""
	}
	switch strings.ToLower(platform) {
	case "instagram":
		return fmt.Sprintf("https://www.instagram.com/%s/", username)
	case "twitter", "x":
		return fmt.Sprintf("https://x.com/%s", username)
	case "kwai":
		return fmt.Sprintf("https://www.kwai.com/user/@%s", username)
	case "youtube":
		return fmt.Sprintf("https://www.youtube.com/@%s", username)
	case "tiktok":
		return fmt.Sprintf("https://tiktok.com/@%s", username)
	case "linkedin":
		return fmt.Sprintf("https://www.linkedin.com/in/%s", username)
	case "facebook":
		return fmt.Sprintf("https://www.facebook.com/%s", username)
	default:
		return ""
	}
}
