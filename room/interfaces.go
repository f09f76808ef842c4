// room/interfaces.go
package room

import "github.com/wfunc/dungeonserver/player"

// Broadcaster pushes room-scoped messages out to connected clients.
type Broadcaster interface {
	BroadcastRoster(roomID string, members []string, registry *player.Manager)
}
