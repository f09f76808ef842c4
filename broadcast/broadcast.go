// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/player"
	"github.com/wfunc/dungeonserver/session"
)

// 基于会话的广播器. Room membership is resolved by username, so every open
// connection of a member receives the message.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

// BroadcastToMembers 向房间成员广播
func (b *RoomBroadcaster) BroadcastToMembers(members []string, v interface{}) {
	for _, username := range members {
		for _, s := range b.sessionManager.GetByUsername(username) {
			if err := s.Send(v); err != nil {
				// 发送失败的连接由读循环负责清理
				continue
			}
		}
	}
}

// BroadcastToAll 向所有连接广播
func (b *RoomBroadcaster) BroadcastToAll(v interface{}) {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(v); err != nil {
			continue
		}
	}
}

// BroadcastRoster sends the character roster to every member of the room.
// Each recipient gets the list without their own active character; clients
// render their own character locally and only need the others.
func (b *RoomBroadcaster) BroadcastRoster(roomID string, members []string, registry *player.Manager) {
	all := registry.GetAllCharacters()

	for _, username := range members {
		sessions := b.sessionManager.GetByUsername(username)
		if len(sessions) == 0 {
			continue
		}

		ownID := ""
		if user, exists := registry.GetUser(username); exists {
			ownID = user.ActiveCharacterID
		}

		roster := make([]player.CharacterData, 0, len(all))
		for _, c := range all {
			if c.ID == ownID {
				continue
			}
			roster = append(roster, c)
		}

		msg := network.PlayersMessage{Type: network.MsgPlayers, Players: roster}
		for _, s := range sessions {
			if err := s.Send(msg); err != nil {
				continue
			}
		}
	}
}
