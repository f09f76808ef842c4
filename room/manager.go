// room/manager.go
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/state"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotAdmin      = errors.New("only the room admin may do this")
	ErrAlreadyMember = errors.New("already a member of this room")
	ErrUnknownStatus = errors.New("unknown room status")
)

// defaultSections is the campaign layout stamped onto every new room.
var defaultSections = []dungeon.SectionConfig{
	{Name: "The Outskirts", RoomCount: 6},
	{Name: "The Depths", RoomCount: 8},
	{Name: "The Sanctum", RoomCount: 6},
}

// Manager 管理所有房间. Every mutation is written through to the store so a
// restart can rebuild the lobby.
type Manager struct {
	rooms        map[string]*Room
	store        persistence.Store
	broadcaster  Broadcaster
	tickInterval time.Duration
	mutex        sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(store persistence.Store) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		store: store,
	}
}

// SetBroadcaster wires the outbound side after construction; the broadcaster
// itself needs the manager, so this breaks the chicken and egg at startup.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.broadcaster = b
}

// SetTickInterval overrides the update cadence of rooms created afterwards.
func (m *Manager) SetTickInterval(d time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.tickInterval = d
}

// CreateRoom 创建一个新房间并添加到管理器. The creator becomes admin and
// first member, and the dungeon map is generated once, here.
func (m *Manager) CreateRoom(name, admin string) *Room {
	rng := dungeon.NewRNG(time.Now().UnixNano())
	mapData := &models.MapData{
		Acts: []*dungeon.Act{
			dungeon.NewAct("Act I", dungeon.GoalFindArtifact, defaultSections, rng),
		},
	}

	m.mutex.Lock()
	room := NewRoom(uuid.New().String(), name, admin, mapData, m.broadcaster, m.tickInterval)
	m.rooms[room.ID] = room
	m.mutex.Unlock()

	m.persist()
	return room
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// FindRoomByMember returns the room the user belongs to, if any.
func (m *Manager) FindRoomByMember(username string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, room := range m.rooms {
		if room.HasMember(username) {
			return room, true
		}
	}
	return nil, false
}

// ListRooms 获取所有房间
func (m *Manager) ListRooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// EditRoom 重命名房间, 仅限管理员
func (m *Manager) EditRoom(id, requester, newName string) (*Room, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.Admin != requester {
		return nil, ErrNotAdmin
	}

	room.mutex.Lock()
	room.Name = newName
	room.mutex.Unlock()

	m.persist()
	return room, nil
}

// SetRoomStatus 切换房间状态, 仅限管理员
func (m *Manager) SetRoomStatus(id, requester, status string) (*Room, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.Admin != requester {
		return nil, ErrNotAdmin
	}
	if err := room.SetStatus(status); err != nil {
		return nil, err
	}

	m.persist()
	return room, nil
}

// DeleteRoom 移除并关闭一个房间, 仅限管理员
func (m *Manager) DeleteRoom(id, requester string) error {
	room, exists := m.GetRoom(id)
	if !exists {
		return ErrRoomNotFound
	}
	if room.Admin != requester {
		return ErrNotAdmin
	}

	m.mutex.Lock()
	delete(m.rooms, id)
	m.mutex.Unlock()

	room.Close()
	m.persist()
	return nil
}

// JoinRoom 加入房间
func (m *Manager) JoinRoom(id, username string) (*Room, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return nil, ErrRoomNotFound
	}
	if !room.AddMember(username) {
		return nil, ErrAlreadyMember
	}

	m.persist()
	return room, nil
}

// LeaveRoom 离开房间. Leaving a room you are not in is a no-op.
func (m *Manager) LeaveRoom(id, username string) (*Room, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return nil, ErrRoomNotFound
	}
	room.RemoveMember(username)

	m.persist()
	return room, nil
}

// AddChatMessage 追加一条聊天消息
func (m *Manager) AddChatMessage(id, sender, text string) (*Room, models.ChatMessage, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return nil, models.ChatMessage{}, ErrRoomNotFound
	}

	msg := models.ChatMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	room.AddChatMessage(msg)

	m.persist()
	return room, msg, nil
}

// Restore rebuilds the lobby from the store. Rooms come back with a fresh
// state machine in their persisted status and an empty character registry.
func (m *Manager) Restore() error {
	if m.store == nil {
		return nil
	}

	records, err := m.store.LoadRoomTable()
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, rec := range records {
		room := NewRoom(rec.ID, rec.Name, rec.Admin, rec.Map, m.broadcaster, m.tickInterval)
		room.mutex.Lock()
		room.members = append([]string(nil), rec.Players...)
		room.chat = append([]models.ChatMessage(nil), rec.Chat...)
		room.mutex.Unlock()

		if rec.Status != "" && rec.Status != state.StatusActive {
			if err := room.SetStatus(rec.Status); err != nil {
				logger.Log.Warnf("恢复房间 %s 状态 %s 失败: %v", rec.ID, rec.Status, err)
			}
		}
		m.rooms[rec.ID] = room
	}

	logger.Log.Infof("已从存储恢复 %d 个房间", len(records))
	return nil
}

// CloseAll stops every room loop, for shutdown and tests.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, room := range m.rooms {
		room.Close()
	}
}

// persist writes the whole room table through to the store. Failures are
// logged, not surfaced; the in-memory lobby stays authoritative.
func (m *Manager) persist() {
	if m.store == nil {
		return
	}

	m.mutex.RLock()
	records := make([]*models.RoomRecord, 0, len(m.rooms))
	for _, room := range m.rooms {
		records = append(records, room.Record())
	}
	m.mutex.RUnlock()

	if err := m.store.SaveRoomTable(records); err != nil {
		logger.Log.Errorf("保存房间表失败: %v", err)
	}
}
