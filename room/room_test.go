package room

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/player"
	"github.com/wfunc/dungeonserver/state"
)

// MockBroadcaster is a test double for the Broadcaster interface. The room
// loop broadcasts from its own goroutine, so the counter is guarded.
type MockBroadcaster struct {
	mu      sync.Mutex
	rosters int
}

func (m *MockBroadcaster) BroadcastRoster(roomID string, members []string, registry *player.Manager) {
	m.mu.Lock()
	m.rosters++
	m.mu.Unlock()
}

func (m *MockBroadcaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters
}

// MockStore records room table writes; the other Store methods are unused by
// the room manager.
type MockStore struct {
	saved [][]*models.RoomRecord
	table []*models.RoomRecord
}

func (m *MockStore) SaveRoomTable(rooms []*models.RoomRecord) error {
	m.saved = append(m.saved, rooms)
	m.table = rooms
	return nil
}

func (m *MockStore) LoadRoomTable() ([]*models.RoomRecord, error) { return m.table, nil }

func (m *MockStore) SaveMap(name string, data *dungeon.GeneratedMap) error { return nil }

func (m *MockStore) LoadMap(name string) (*dungeon.GeneratedMap, error) {
	return nil, persistence.ErrRecordNotFound
}

func (m *MockStore) ListMaps() ([]string, error) { return nil, nil }

func (m *MockStore) DeleteMap(name string) error { return nil }

func (m *MockStore) SaveUsers(users map[string]*models.UserRecord) error { return nil }

func (m *MockStore) LoadUsers() (map[string]*models.UserRecord, error) {
	return nil, persistence.ErrRecordNotFound
}

func (m *MockStore) Close() error { return nil }

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()

	room := manager.CreateRoom("Test Dungeon", "alice")
	if room == nil {
		t.Fatal("CreateRoom should not return nil")
	}
	if room.Admin != "alice" {
		t.Errorf("Expected admin alice, got %s", room.Admin)
	}
	if !room.HasMember("alice") {
		t.Error("Creator should be a member")
	}
	if room.GetStatus() != state.StatusActive {
		t.Errorf("New room status = %s, want %s", room.GetStatus(), state.StatusActive)
	}
	if room.Map == nil || len(room.Map.Acts) != 1 {
		t.Fatal("New room should carry one generated act")
	}
	if len(room.Map.Acts[0].Sections) != len(defaultSections) {
		t.Errorf("Expected %d sections, got %d", len(defaultSections), len(room.Map.Acts[0].Sections))
	}

	retrieved, exists := manager.GetRoom(room.ID)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrieved != room {
		t.Error("GetRoom should return the same room instance")
	}
}

func TestRoomManager_JoinAndLeave(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	room := manager.CreateRoom("Join Test", "alice")

	if _, err := manager.JoinRoom(room.ID, "bob"); err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if !room.HasMember("bob") {
		t.Error("bob should be a member after joining")
	}

	if _, err := manager.JoinRoom(room.ID, "bob"); err != ErrAlreadyMember {
		t.Errorf("Second join should return ErrAlreadyMember, got %v", err)
	}

	if _, err := manager.JoinRoom("no-such-room", "bob"); err != ErrRoomNotFound {
		t.Errorf("Joining a missing room should return ErrRoomNotFound, got %v", err)
	}

	if _, err := manager.LeaveRoom(room.ID, "bob"); err != nil {
		t.Fatalf("LeaveRoom failed: %v", err)
	}
	if room.HasMember("bob") {
		t.Error("bob should not be a member after leaving")
	}

	// Leaving again is a no-op.
	if _, err := manager.LeaveRoom(room.ID, "bob"); err != nil {
		t.Errorf("Repeated leave should be a no-op, got %v", err)
	}
}

func TestRoomManager_AdminGate(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	room := manager.CreateRoom("Admin Test", "alice")
	manager.JoinRoom(room.ID, "bob")

	if _, err := manager.EditRoom(room.ID, "bob", "Hijacked"); err != ErrNotAdmin {
		t.Errorf("Non-admin edit should return ErrNotAdmin, got %v", err)
	}
	if err := manager.DeleteRoom(room.ID, "bob"); err != ErrNotAdmin {
		t.Errorf("Non-admin delete should return ErrNotAdmin, got %v", err)
	}
	if _, err := manager.SetRoomStatus(room.ID, "bob", state.StatusGame); err != ErrNotAdmin {
		t.Errorf("Non-admin status change should return ErrNotAdmin, got %v", err)
	}

	if _, err := manager.EditRoom(room.ID, "alice", "Renamed"); err != nil {
		t.Fatalf("Admin edit failed: %v", err)
	}
	if room.Name != "Renamed" {
		t.Errorf("Room name = %s, want Renamed", room.Name)
	}

	if _, err := manager.SetRoomStatus(room.ID, "alice", state.StatusGame); err != nil {
		t.Fatalf("Admin status change failed: %v", err)
	}
	if room.GetStatus() != state.StatusGame {
		t.Errorf("Room status = %s, want %s", room.GetStatus(), state.StatusGame)
	}
	if u, ok := room.Registry().GetUser("bob"); !ok || u.ActiveRoom != room.ID {
		t.Error("Starting the game should bind every member to the room")
	}

	if err := manager.DeleteRoom(room.ID, "alice"); err != nil {
		t.Fatalf("Admin delete failed: %v", err)
	}
	if _, exists := manager.GetRoom(room.ID); exists {
		t.Error("Deleted room should be gone")
	}
}

func TestRoom_InactiveCannotStartGame(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	room := manager.CreateRoom("Status Test", "alice")

	if _, err := manager.SetRoomStatus(room.ID, "alice", state.StatusInactive); err != nil {
		t.Fatalf("Deactivating failed: %v", err)
	}
	if _, err := manager.SetRoomStatus(room.ID, "alice", state.StatusGame); !errors.Is(err, state.ErrTransitionNotAllowed) {
		t.Errorf("Inactive room should refuse to start a game, got %v", err)
	}

	// Reactivate first, then the game may start.
	if _, err := manager.SetRoomStatus(room.ID, "alice", state.StatusActive); err != nil {
		t.Fatalf("Reactivating failed: %v", err)
	}
	if _, err := manager.SetRoomStatus(room.ID, "alice", state.StatusGame); err != nil {
		t.Fatalf("Starting after reactivation failed: %v", err)
	}
}

func TestRoom_HurtExpiresWhileInLobby(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	b := &MockBroadcaster{}
	manager.SetBroadcaster(b)
	room := manager.CreateRoom("Sweep Test", "alice")
	room.Close() // stop the background loop, drive ticks by hand

	room.Registry().AddCharacter("alice", player.CharacterData{Name: "A", X: 5, Y: 5})
	room.Registry().AddCharacter("bob", player.CharacterData{Name: "B", X: 5, Y: 6})
	room.Registry().Attack("alice", 5, 6, time.Now().Add(-time.Second))

	// The room never left the lobby, the sweep still runs on every tick.
	if room.GetStatus() != state.StatusActive {
		t.Fatalf("Room status = %s, want %s", room.GetStatus(), state.StatusActive)
	}
	rosters := b.count()
	room.Update()

	char, ok := room.Registry().GetActiveCharacter("bob")
	if !ok {
		t.Fatal("bob should have an active character")
	}
	if char.IsHurt {
		t.Error("Expired hurt flag should be cleared outside the game state")
	}
	if b.count() != rosters+1 {
		t.Errorf("Expiry should push one roster, got %d extra", b.count()-rosters)
	}

	// Sweeping again finds nothing and stays quiet.
	room.Update()
	if b.count() != rosters+1 {
		t.Error("Idle lobby tick should not broadcast")
	}
}

func TestRoomManager_TickInterval(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()

	room := manager.CreateRoom("Default Tick", "alice")
	if room.tick != defaultTickInterval {
		t.Errorf("Default tick = %v, want %v", room.tick, defaultTickInterval)
	}

	manager.SetTickInterval(10 * time.Millisecond)
	fast := manager.CreateRoom("Fast Tick", "alice")
	if fast.tick != 10*time.Millisecond {
		t.Errorf("Configured tick = %v, want 10ms", fast.tick)
	}
}

func TestRoom_ChatCap(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	room := manager.CreateRoom("Chat Test", "alice")

	for i := 0; i < maxChatMessages+1; i++ {
		manager.AddChatMessage(room.ID, "alice", fmt.Sprintf("message %d", i))
	}

	chat := room.GetChat()
	if len(chat) != maxChatMessages {
		t.Fatalf("Chat backlog = %d, want %d", len(chat), maxChatMessages)
	}
	if chat[0].Text != "message 1" {
		t.Errorf("Oldest retained message = %q, want the second sent", chat[0].Text)
	}
	if chat[len(chat)-1].Text != fmt.Sprintf("message %d", maxChatMessages) {
		t.Errorf("Newest message = %q", chat[len(chat)-1].Text)
	}
}

func TestRoom_RecordExcludesLiveState(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	room := manager.CreateRoom("Record Test", "alice")
	room.Registry().AddCharacter("alice", player.CharacterData{Name: "A"})

	rec := room.Record()
	if rec.ID != room.ID || rec.Admin != "alice" {
		t.Error("Record should carry identity fields")
	}
	if rec.Status != state.StatusActive {
		t.Errorf("Record status = %s, want %s", rec.Status, state.StatusActive)
	}
	if rec.Map != room.Map {
		t.Error("Record should reference the frozen map")
	}
}

func TestRoomManager_PersistAndRestore(t *testing.T) {
	store := &MockStore{}
	manager := NewRoomManager(store)
	room := manager.CreateRoom("Persist Test", "alice")
	manager.JoinRoom(room.ID, "bob")
	manager.AddChatMessage(room.ID, "bob", "hello")
	manager.SetRoomStatus(room.ID, "alice", state.StatusGame)
	manager.CloseAll()

	if len(store.saved) == 0 {
		t.Fatal("Mutations should write through to the store")
	}

	restored := NewRoomManager(store)
	defer restored.CloseAll()
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	back, exists := restored.GetRoom(room.ID)
	if !exists {
		t.Fatal("Restored manager should contain the persisted room")
	}
	if !back.HasMember("bob") {
		t.Error("Restored room lost its members")
	}
	if len(back.GetChat()) != 1 {
		t.Errorf("Restored room has %d chat messages, want 1", len(back.GetChat()))
	}
	if back.GetStatus() != state.StatusGame {
		t.Errorf("Restored room status = %s, want %s", back.GetStatus(), state.StatusGame)
	}
	if back.Registry().GetAllCharacters() != nil {
		t.Error("Restored room should start with an empty character registry")
	}
}

func TestRoom_BroadcastRosterUsesBroadcaster(t *testing.T) {
	manager := NewRoomManager(nil)
	defer manager.CloseAll()
	b := &MockBroadcaster{}
	manager.SetBroadcaster(b)

	room := manager.CreateRoom("Broadcast Test", "alice")
	room.BroadcastRoster()
	if b.count() != 1 {
		t.Errorf("Expected 1 roster broadcast, got %d", b.count())
	}
}
