package artifacts

import (
	"strconv"
	"strings"
	"time"
)

// StandardizedProfile is the platform-independent profile record produced
// from heterogeneous raw scrape shapes. Count fields are nil when no source
// path yielded a value.
type StandardizedProfile struct {
	Platform        string                     `json:"platform"`
	Username        string                     `json:"username"`
	FullName        *string                    `json:"full_name"`
	Bio             *string                    `json:"bio"`
	IsVerified      bool                       `json:"is_verified"`
	FollowersCount  *int64                     `json:"followers_count"`
	FollowingCount  *int64                     `json:"following_count"`
	PostsCount      *int64                     `json:"posts_count"`
	LikesCount      *int64                     `json:"likes_count"`
	ViewsCount      *int64                     `json:"views_count"`
	ProfilePicURL   *string                    `json:"profile_pic_url"`
	ProfileURL      *string                    `json:"profile_url"`
	LocalProfilePic *string                    `json:"local_profile_pic"`
	ExtractedAt     time.Time                  `json:"extracted_at"`
	OriginalData    map[string]FieldProvenance `json:"original_data"`
	ExtractionPaths map[string][]string        `json:"extraction_paths"`
}

// FieldProvenance records which source path supplied a standardized field.
type FieldProvenance struct {
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// fieldChain is an ordered fallback chain of source paths for one
// standardized field. The first path that yields a non-nil value wins.
type fieldChain struct {
	field string
	paths []string
}

// Fallback chains per field, probed in order. Dotted paths descend into
// nested objects.
var stringChains = []fieldChain{
	{"username", []string{"username", "screen_name", "login", "user_name", "account_name", "handle"}},
	{"full_name", []string{"fullName", "full_name", "name", "display_name", "title", "nickname"}},
	{"bio", []string{"bio", "description", "about", "summary", "biography"}},
	{"profile_pic_url", []string{"profilePicUrl", "profile_pic_url", "avatar_url", "picture_url", "profile_image_url"}},
	{"profile_url", []string{"profile_url", "url", "html_url", "permalink"}},
}

var countChains = []fieldChain{
	{"followers_count", []string{"followersCount", "followers_count", "follower_count", "subscribers_count", "subscriberCount", "followers"}},
	{"following_count", []string{"followingCount", "following_count", "follow_count", "friends_count", "following"}},
	{"posts_count", []string{"postsCount", "posts_count", "media_count", "statuses_count", "tweet_count"}},
	{"likes_count", []string{"likes_count", "like_count", "favorites_count", "likesCount"}},
	{"views_count", []string{"views_count", "view_count", "plays_count", "viewCount"}},
}

var verifiedChain = fieldChain{"is_verified", []string{"is_verified", "verified", "isVerified", "is_authentic"}}

var usernameFallbackChain = []string{"id", "user_id", "author_id"}

var platformBaseURLs = map[string]string{
	"twitter":   "https://twitter.com/",
	"instagram": "https://instagram.com/",
	"facebook":  "https://facebook.com/",
	"youtube":   "https://youtube.com/",
}

// Standardize normalizes a raw scrape shape into a StandardizedProfile,
// recording the source path of every extracted field. The caller-supplied
// platform and username always win over extracted values.
func Standardize(raw map[string]any, platform, username string, now time.Time) StandardizedProfile {
	std := StandardizedProfile{
		Platform:        platform,
		ExtractedAt:     now.UTC(),
		OriginalData:    map[string]FieldProvenance{},
		ExtractionPaths: map[string][]string{},
	}

	for _, chain := range stringChains {
		if value, path, ok := probe(raw, chain.paths); ok {
			s := strings.TrimSpace(toString(value))
			std.setString(chain.field, s)
			std.record(chain.field, path, value)
		}
	}
	for _, chain := range countChains {
		if value, path, ok := probe(raw, chain.paths); ok {
			n := toCount(value)
			std.setCount(chain.field, n)
			std.record(chain.field, path, value)
		}
	}
	if value, path, ok := probe(raw, verifiedChain.paths); ok {
		std.IsVerified = toBool(value)
		std.record(verifiedChain.field, path, value)
	}

	if std.Username == "" {
		if value, path, ok := probe(raw, usernameFallbackChain); ok {
			std.Username = strings.TrimSpace(toString(value))
			std.record("username", path, value)
		}
	}
	if username != "" {
		std.Username = username
	}

	if std.ProfileURL == nil && std.Username != "" {
		if base, ok := platformBaseURLs[strings.ToLower(platform)]; ok {
			url := base + std.Username
			std.ProfileURL = &url
			std.record("profile_url", "constructed_from_username", url)
		}
	}

	return std
}

// FollowersFrom extracts a best-effort followers count from a raw shape,
// returning 0 when no known path yields a number.
func FollowersFrom(raw map[string]any) int64 {
	if value, _, ok := probe(raw, countChains[0].paths); ok {
		return toCount(value)
	}
	return 0
}

func (s *StandardizedProfile) setString(field, value string) {
	switch field {
	case "username":
		s.Username = value
	case "full_name":
		s.FullName = &value
	case "bio":
		s.Bio = &value
	case "profile_pic_url":
		s.ProfilePicURL = &value
	case "profile_url":
		s.ProfileURL = &value
	}
}

func (s *StandardizedProfile) setCount(field string, value int64) {
	switch field {
	case "followers_count":
		s.FollowersCount = &value
	case "following_count":
		s.FollowingCount = &value
	case "posts_count":
		s.PostsCount = &value
	case "likes_count":
		s.LikesCount = &value
	case "views_count":
		s.ViewsCount = &value
	}
}

func (s *StandardizedProfile) record(field, path string, value any) {
	if value == nil {
		return
	}
	s.ExtractionPaths[field] = appendUnique(s.ExtractionPaths[field], path)
	if _, exists := s.OriginalData[field]; !exists {
		s.OriginalData[field] = FieldProvenance{Value: value, Source: path}
	}
}

func appendUnique(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}

// probe walks the fallback chain and returns the first non-nil value and the
// path that produced it.
func probe(raw map[string]any, paths []string) (any, string, bool) {
	for _, path := range paths {
		if value := lookup(raw, path); value != nil {
			return value, path, true
		}
	}
	return nil, "", false
}

func lookup(raw map[string]any, path string) any {
	if raw == nil {
		return nil
	}
	if !strings.Contains(path, ".") {
		return raw[path]
	}
	var current any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
		if current == nil {
			return nil
		}
	}
	return current
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func toCount(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return int64(parsed)
	default:
		return 0
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != "" && b != "false" && b != "0"
	case float64:
		return b != 0
	default:
		return false
	}
}
