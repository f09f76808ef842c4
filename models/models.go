package models

import (
	"github.com/wfunc/dungeonserver/dungeon"
)

// ChatMessage is one entry of a lobby room's chat buffer.
type ChatMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// MapData is the frozen per-room game map: an ordered list of acts.
type MapData struct {
	Acts []*dungeon.Act `json:"acts"`
}

// RoomRecord is the persisted form of a lobby room. The live player registry
// and the room's state machine are excluded and reconstructed on load.
type RoomRecord struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Admin   string        `json:"admin"`
	Players []string      `json:"players"`
	Status  string        `json:"status"`
	Chat    []ChatMessage `json:"chat"`
	Map     *MapData      `json:"map,omitempty"`
}

// CharacterInfo is the persisted character sheet of a user (name and class;
// live position/animation state is never persisted).
type CharacterInfo struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// UserRecord is one entry of the persisted user table.
type UserRecord struct {
	Username       string          `json:"username"`
	PasswordHash   string          `json:"password"`
	Characters     []CharacterInfo `json:"characters,omitempty"`
	Token          string          `json:"token,omitempty"`
	TokenExpiresAt int64           `json:"tokenExpiresAt,omitempty"` // epoch ms
}
