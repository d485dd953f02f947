package room

import "errors"

var ErrStateNotFound = errors.New("playback state not found")
