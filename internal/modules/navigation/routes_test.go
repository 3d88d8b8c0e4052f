package navigation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_DefaultTable(t *testing.T) {
	cases := []struct {
		path string
		want map[string]string
	}{
		{"/blog/my-first-post", map[string]string{"slug": "my-first-post"}},
		{"/experience/tea-ceremony", map[string]string{"id": "tea-ceremony"}},
		{"/tour/kyoto-walks", map[string]string{"slug": "kyoto-walks"}},
		{"/careers/apply/engineering/42", map[string]string{"jobId": "42"}},
		{"/press/launch-2024", map[string]string{"articleId": "launch-2024"}},
		{"/whats-new/7", map[string]string{"id": "7"}},
		{"/blog/my-first-post/", map[string]string{"slug": "my-first-post"}},
		{"/blog/hello%20world?ref=home#top", map[string]string{"slug": "hello%20world"}},
		{"/unknown/path", map[string]string{}},
		{"/blog", map[string]string{}},
		{"/blog/a/b", map[string]string{}},
		{"/careers/apply/42", map[string]string{}},
		{"", map[string]string{}},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got := Params(tc.path)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRouter_CustomTableFirstMatchWins(t *testing.T) {
	r := NewRouter("/tours/featured", "/tours/:slug")

	pattern, params, ok := r.Match("/tours/featured")
	assert.True(t, ok)
	assert.Equal(t, "/tours/featured", pattern)
	assert.Empty(t, params)

	pattern, params, ok = r.Match("/tours/lisbon")
	assert.True(t, ok)
	assert.Equal(t, "/tours/:slug", pattern)
	assert.Equal(t, map[string]string{"slug": "lisbon"}, params)
}

func TestLocationOf(t *testing.T) {
	u, err := url.Parse("/blog/my-first-post?utm=x#comments")
	require.NoError(t, err)

	loc := LocationOf(u)
	assert.Equal(t, "/blog/my-first-post", loc.Pathname)
	assert.Equal(t, "?utm=x", loc.Search)
	assert.Equal(t, "#comments", loc.Hash)
	assert.Nil(t, loc.State)
	assert.Equal(t, "default", loc.Key)

	loc, err = ParseLocation("")
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Pathname)
	assert.Empty(t, loc.Search)
	assert.Empty(t, loc.Hash)
}
