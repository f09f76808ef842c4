package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestFileStore_MapRoundTrip(t *testing.T) {
	store := newTestStore(t)

	generated := dungeon.Generate(dungeon.GenerateConfig{
		Width: 30, Height: 20, RoomCount: 4, MinRoomSize: 3, MaxRoomSize: 6, Seed: 7,
	})
	if err := store.SaveMap("cavern", generated); err != nil {
		t.Fatalf("SaveMap failed: %v", err)
	}

	loaded, err := store.LoadMap("cavern")
	if err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}
	if !reflect.DeepEqual(generated, loaded) {
		t.Error("Loaded map differs from the saved one")
	}
}

func TestFileStore_LoadMap_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.LoadMap("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestFileStore_LoadMap_Corrupt(t *testing.T) {
	store := newTestStore(t)

	path := filepath.Join(store.mapsDir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadMap("broken"); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("Expected ErrCorruptRecord, got %v", err)
	}
}

func TestFileStore_ListMaps(t *testing.T) {
	store := newTestStore(t)

	if names, err := store.ListMaps(); err != nil || len(names) != 0 {
		t.Fatalf("Empty store should list no maps, got %v / %v", names, err)
	}

	generated := dungeon.Generate(dungeon.GenerateConfig{
		Width: 20, Height: 15, RoomCount: 2, MinRoomSize: 3, MaxRoomSize: 5, Seed: 1,
	})
	store.SaveMap("alpha", generated)
	store.SaveMap("beta", generated)

	names, err := store.ListMaps()
	if err != nil {
		t.Fatalf("ListMaps failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("Expected 2 maps, got %v", names)
	}
}

func TestFileStore_DeleteMap(t *testing.T) {
	store := newTestStore(t)

	generated := dungeon.Generate(dungeon.GenerateConfig{
		Width: 20, Height: 15, RoomCount: 2, MinRoomSize: 3, MaxRoomSize: 5, Seed: 3,
	})
	store.SaveMap("doomed", generated)

	if err := store.DeleteMap("doomed"); err != nil {
		t.Fatalf("DeleteMap failed: %v", err)
	}
	if _, err := store.LoadMap("doomed"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Deleted map should be gone, got %v", err)
	}
	if err := store.DeleteMap("doomed"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Deleting a missing map should return ErrRecordNotFound, got %v", err)
	}
}

func TestFileStore_MapNameSanitized(t *testing.T) {
	store := newTestStore(t)

	generated := dungeon.Generate(dungeon.GenerateConfig{
		Width: 20, Height: 15, RoomCount: 2, MinRoomSize: 3, MaxRoomSize: 5, Seed: 2,
	})
	// Path traversal in the name must stay inside the maps directory.
	if err := store.SaveMap("../escape", generated); err != nil {
		t.Fatalf("SaveMap failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.mapsDir, "escape.json")); err != nil {
		t.Errorf("Sanitized map file not found in maps dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.dataDir, "escape.json")); err == nil {
		t.Error("Map file escaped the maps directory")
	}
}

func TestFileStore_RoomTableRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rooms := []*models.RoomRecord{
		{
			ID:      "r1",
			Name:    "First",
			Admin:   "alice",
			Status:  "ACTIVE",
			Players: []string{"alice", "bob"},
			Chat: []models.ChatMessage{
				{Sender: "bob", Text: "hi", Timestamp: 123},
			},
		},
	}
	if err := store.SaveRoomTable(rooms); err != nil {
		t.Fatalf("SaveRoomTable failed: %v", err)
	}

	loaded, err := store.LoadRoomTable()
	if err != nil {
		t.Fatalf("LoadRoomTable failed: %v", err)
	}
	if !reflect.DeepEqual(rooms, loaded) {
		t.Error("Loaded room table differs from the saved one")
	}
}

func TestFileStore_UsersRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.LoadUsers(); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound on fresh store, got %v", err)
	}

	users := map[string]*models.UserRecord{
		"alice": {Username: "alice", PasswordHash: "abc", Token: "tok", TokenExpiresAt: 99},
	}
	if err := store.SaveUsers(users); err != nil {
		t.Fatalf("SaveUsers failed: %v", err)
	}

	loaded, err := store.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if !reflect.DeepEqual(users, loaded) {
		t.Error("Loaded users differ from the saved ones")
	}
}
