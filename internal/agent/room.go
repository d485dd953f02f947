package agent

import (
	"fmt"
	"net/url"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	roomQueryParam = "room"
	roomIdAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	roomIdLength   = 6
)

// RoomIDFromURL returns the room query parameter of a page URL.
func RoomIDFromURL(pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	roomId := u.Query().Get(roomQueryParam)
	return roomId, roomId != ""
}

func NewRoomID() (string, error) {
	return gonanoid.Generate(roomIdAlphabet, roomIdLength)
}

// ShareLink returns base with the room query parameter set to roomId. Other
// query parameters of base are kept.
func ShareLink(base, roomId string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}

	q := u.Query()
	q.Set(roomQueryParam, roomId)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ResolveRoomID picks the room from the page URL or generates a new one.
func ResolveRoomID(pageURL string) (roomId string, generated bool, err error) {
	if roomId, ok := RoomIDFromURL(pageURL); ok {
		return roomId, false, nil
	}

	roomId, err = NewRoomID()
	if err != nil {
		return "", false, fmt.Errorf("failed to generate room id: %w", err)
	}
	return roomId, true, nil
}
