package dungeon

import "github.com/google/uuid"

// Default room sizing for topology rooms; these are whole areas, not the
// small carved rectangles of the grid generator.
const (
	defaultMinTopologySize = 40
	defaultMaxTopologySize = 80
)

// GenerateLinearWithDeadends builds a section's room graph: mainCount rooms
// chained left to right, plus deadendCount rooms each hanging off one
// randomly chosen main-path room at an offset position. Deadends are not
// overlap-checked; they may float near each other. Connections are always
// bidirectional: a deadend lists exactly its anchor, and the anchor appends
// the deadend.
func GenerateLinearWithDeadends(mainCount, deadendCount int, texture TileType, minRoomSize, maxRoomSize int, rng *RNG) []*Room {
	if minRoomSize <= 0 {
		minRoomSize = defaultMinTopologySize
	}
	if maxRoomSize <= 0 {
		maxRoomSize = defaultMaxTopologySize
	}

	rooms := make([]*Room, 0, mainCount+deadendCount)

	prevID := ""
	x, y := 0, 0
	for i := 0; i < mainCount; i++ {
		w := rng.IntRange(minRoomSize, maxRoomSize)
		h := rng.IntRange(minRoomSize, maxRoomSize)
		room := &Room{
			ID:          uuid.New().String(),
			X:           x,
			Y:           y,
			W:           w,
			H:           h,
			Type:        RoomMain,
			Connections: []string{},
			Texture:     texture,
			Tiles:       GenerateRoomTiles(w, h, texture, TileStone, nil, nil, rng),
			Objects:     []MapObject{},
			Structures:  []MapObject{},
			Monsters:    []MonsterSpawn{},
		}
		if prevID != "" {
			room.Connections = append(room.Connections, prevID)
			rooms[len(rooms)-1].Connections = append(rooms[len(rooms)-1].Connections, room.ID)
		}
		rooms = append(rooms, room)

		// Shift the cursor for the next main room: strictly to the right,
		// with a small vertical wobble.
		x += w + rng.IntRange(2, 4)
		y += rng.IntRange(-2, 2)
		prevID = room.ID
	}

	for i := 0; i < deadendCount; i++ {
		w := rng.IntRange(minRoomSize, maxRoomSize)
		h := rng.IntRange(minRoomSize, maxRoomSize)
		anchor := rooms[rng.IntRange(0, len(rooms)-1)]
		dx := rng.IntRange(-w-4, w+4)
		dy := rng.IntRange(-h-4, h+4)
		room := &Room{
			ID:          uuid.New().String(),
			X:           anchor.X + dx,
			Y:           anchor.Y + dy,
			W:           w,
			H:           h,
			Type:        RoomDeadend,
			Connections: []string{anchor.ID},
			Texture:     texture,
			Tiles:       GenerateRoomTiles(w, h, texture, TileStone, nil, nil, rng),
			Objects:     []MapObject{},
			Structures:  []MapObject{},
			Monsters:    []MonsterSpawn{},
		}
		anchor.Connections = append(anchor.Connections, room.ID)
		rooms = append(rooms, room)
	}

	return rooms
}

// SectionConfig names one section of an act and sizes its main path.
type SectionConfig struct {
	Name      string `json:"name"`
	RoomCount int    `json:"roomsCount"`
}

// NewAct generates an act: one section per config, each with a main path of
// RoomCount rooms and RoomCount/2 deadends, chained through Prev/Next ids in
// construction order.
func NewAct(name, goal string, sections []SectionConfig, rng *RNG) *Act {
	act := &Act{
		ID:       uuid.New().String(),
		Name:     name,
		Goal:     goal,
		Sections: make([]*Section, 0, len(sections)),
	}
	for _, cfg := range sections {
		act.Sections = append(act.Sections, &Section{
			ID:    uuid.New().String(),
			Name:  cfg.Name,
			Rooms: GenerateLinearWithDeadends(cfg.RoomCount, cfg.RoomCount/2, TileEarth, 0, 0, rng),
		})
	}
	for i, section := range act.Sections {
		if i > 0 {
			section.Prev = act.Sections[i-1].ID
		}
		if i < len(act.Sections)-1 {
			section.Next = act.Sections[i+1].ID
		}
	}
	return act
}
