package agent

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomIDFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOk bool
	}{
		{url: "http://localhost:5173/?room=abc123", want: "abc123", wantOk: true},
		{url: "https://watch.example/?foo=1&room=r1", want: "r1", wantOk: true},
		{url: "http://localhost:5173/", want: "", wantOk: false},
		{url: "http://localhost:5173/?room=", want: "", wantOk: false},
		{url: "://bad", want: "", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := RoomIDFromURL(tt.url)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRoomID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-z]{6}$`)
	seen := make(map[string]struct{})

	for range 100 {
		id, err := NewRoomID()
		require.NoError(t, err)
		assert.Regexp(t, re, id)
		seen[id] = struct{}{}
	}

	assert.Greater(t, len(seen), 90)
}

func TestShareLink(t *testing.T) {
	link, err := ShareLink("http://localhost:5173/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/?room=abc", link)

	link, err = ShareLink("https://watch.example/party?room=old&lang=en", "new")
	require.NoError(t, err)
	assert.Equal(t, "https://watch.example/party?lang=en&room=new", link)

	roomId, ok := RoomIDFromURL(link)
	assert.True(t, ok)
	assert.Equal(t, "new", roomId)
}

func TestResolveRoomID(t *testing.T) {
	roomId, generated, err := ResolveRoomID("http://localhost:5173/?room=xyz")
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, "xyz", roomId)

	roomId, generated, err = ResolveRoomID("http://localhost:5173/")
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, roomId, 6)
}
