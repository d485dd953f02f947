package main

import (
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/wsclient"
)

// roomEmitter writes join-room as the connect frame of the client, so the room
// is joined exactly once on every connection. Everything else is buffered.
type roomEmitter struct {
	client *wsclient.Client
}

func (e roomEmitter) Emit(eventType string, payload any) error {
	if eventType == protocol.EventJoinRoom {
		return e.client.EmitOnConnect(eventType, payload)
	}
	return e.client.Emit(eventType, payload)
}
