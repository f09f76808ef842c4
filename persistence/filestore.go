// persistence/filestore.go
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
)

// FileStore is the canonical flat-file JSON store: one {name}.json per map
// under maps/, plus rooms.json and users.json in the data directory.
type FileStore struct {
	dataDir string
	mapsDir string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	mapsDir := filepath.Join(dataDir, "maps")
	if err := os.MkdirAll(mapsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create maps dir: %w", err)
	}
	return &FileStore{dataDir: dataDir, mapsDir: mapsDir}, nil
}

func (s *FileStore) SaveMap(name string, data *dungeon.GeneratedMap) error {
	return s.writeJSON(s.mapPath(name), data)
}

func (s *FileStore) LoadMap(name string) (*dungeon.GeneratedMap, error) {
	var data dungeon.GeneratedMap
	if err := s.readJSON(s.mapPath(name), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *FileStore) ListMaps() ([]string, error) {
	entries, err := os.ReadDir(s.mapsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

func (s *FileStore) DeleteMap(name string) error {
	if err := os.Remove(s.mapPath(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

func (s *FileStore) SaveRoomTable(rooms []*models.RoomRecord) error {
	return s.writeJSON(filepath.Join(s.dataDir, "rooms.json"), rooms)
}

func (s *FileStore) LoadRoomTable() ([]*models.RoomRecord, error) {
	var rooms []*models.RoomRecord
	if err := s.readJSON(filepath.Join(s.dataDir, "rooms.json"), &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *FileStore) SaveUsers(users map[string]*models.UserRecord) error {
	return s.writeJSON(filepath.Join(s.dataDir, "users.json"), users)
}

func (s *FileStore) LoadUsers() (map[string]*models.UserRecord, error) {
	var users map[string]*models.UserRecord
	if err := s.readJSON(filepath.Join(s.dataDir, "users.json"), &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) mapPath(name string) string {
	// Map names come from clients; keep them inside the maps directory.
	return filepath.Join(s.mapsDir, filepath.Base(name)+".json")
}

func (s *FileStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileStore) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptRecord, filepath.Base(path), err)
	}
	return nil
}
