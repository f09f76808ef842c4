// services/map_service.go
package services

import (
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/persistence"
)

// MapService generates named dungeon grids and persists them.
type MapService struct {
	store persistence.Store
}

func NewMapService(store persistence.Store) *MapService {
	return &MapService{store: store}
}

// GenerateAndSave runs the grid generator and stores the result under name.
func (s *MapService) GenerateAndSave(name string, cfg dungeon.GenerateConfig) (*dungeon.GeneratedMap, error) {
	generated := dungeon.Generate(cfg)

	if s.store != nil {
		if err := s.store.SaveMap(name, generated); err != nil {
			return nil, err
		}
	}

	logger.Log.Infof("生成地图 %s (%dx%d, seed=%d)", name, generated.Width, generated.Height, generated.Seed)
	return generated, nil
}

func (s *MapService) Load(name string) (*dungeon.GeneratedMap, error) {
	return s.store.LoadMap(name)
}

func (s *MapService) List() ([]string, error) {
	return s.store.ListMaps()
}

func (s *MapService) Delete(name string) error {
	if err := s.store.DeleteMap(name); err != nil {
		return err
	}
	logger.Log.Infof("删除地图 %s", name)
	return nil
}
