package artifacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardizeInstagramShape(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"username":       "alice_raw",
		"fullName":       "Alice Example",
		"bio":            "  travel and code  ",
		"followersCount": float64(1000),
		"followsCount":   float64(12),
		"postsCount":     float64(42),
		"verified":       true,
		"profilePicUrl":  "https://cdn.example.com/alice.jpg",
	}

	now := time.Unix(1700000000, 0)
	std := Standardize(raw, "instagram", "alice", now)

	require.Equal(t, "instagram", std.Platform)
	// Caller-provided username wins over the extracted one.
	require.Equal(t, "alice", std.Username)
	require.NotNil(t, std.FullName)
	require.Equal(t, "Alice Example", *std.FullName)
	require.NotNil(t, std.Bio)
	require.Equal(t, "travel and code", *std.Bio)
	require.True(t, std.IsVerified)
	require.NotNil(t, std.FollowersCount)
	require.Equal(t, int64(1000), *std.FollowersCount)
	require.NotNil(t, std.PostsCount)
	require.Equal(t, int64(42), *std.PostsCount)
	require.Nil(t, std.LikesCount)

	require.Equal(t, "followersCount", std.OriginalData["followers_count"].Source)
	require.Equal(t, []string{"followersCount"}, std.ExtractionPaths["followers_count"])

	require.NotNil(t, std.ProfileURL)
	require.Equal(t, "https://instagram.com/alice", *std.ProfileURL)
	require.Equal(t, "constructed_from_username", std.OriginalData["profile_url"].Source)
}

func TestStandardizeFallbackChainOrder(t *testing.T) {
	t.Parallel()

	// Both followersCount and subscribers_count present; the earlier chain
	// entry must win.
	raw := map[string]any{
		"followersCount":    float64(5),
		"subscribers_count": float64(99),
	}
	std := Standardize(raw, "youtube", "chan", time.Now())
	require.NotNil(t, std.FollowersCount)
	require.Equal(t, int64(5), *std.FollowersCount)
}

func TestStandardizeNestedPathsAndUsernameFallback(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"id": float64(12345),
	}
	std := Standardize(raw, "twitter", "", time.Now())
	require.Equal(t, "12345", std.Username)
	require.Equal(t, "id", std.OriginalData["username"].Source)
}

func TestFollowersFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]any
		want int64
	}{
		{"camelCase", map[string]any{"followersCount": float64(1000)}, 1000},
		{"snake_case", map[string]any{"followers_count": float64(7)}, 7},
		{"numeric string", map[string]any{"followers": "250"}, 250},
		{"unparseable string", map[string]any{"followers": "13.3M"}, 0},
		{"absent", map[string]any{"bio": "x"}, 0},
		{"nil map", nil, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FollowersFrom(tt.raw))
		})
	}
}
