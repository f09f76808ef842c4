// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
)

// Store is the storage boundary: named maps, the lobby room table, and the
// user table. Live gameplay state (positions, animation flags) never goes
// through here.
type Store interface {
	SaveMap(name string, data *dungeon.GeneratedMap) error
	LoadMap(name string) (*dungeon.GeneratedMap, error)
	ListMaps() ([]string, error)
	DeleteMap(name string) error

	SaveRoomTable(rooms []*models.RoomRecord) error
	LoadRoomTable() ([]*models.RoomRecord, error)

	SaveUsers(users map[string]*models.UserRecord) error
	LoadUsers() (map[string]*models.UserRecord, error)

	Close() error
}

var (
	// ErrRecordNotFound means the named record does not exist. It is distinct
	// from ErrCorruptRecord so callers can tell "missing" from "broken".
	ErrRecordNotFound = errors.New("record not found")

	// ErrCorruptRecord means the record exists but cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)
