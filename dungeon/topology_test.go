package dungeon

import "testing"

func roomByID(rooms []*Room, id string) *Room {
	for _, r := range rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func TestGenerateLinearWithDeadends_Counts(t *testing.T) {
	rng := NewRNG(1)
	rooms := GenerateLinearWithDeadends(5, 3, TileEarth, 0, 0, rng)

	if len(rooms) != 8 {
		t.Fatalf("Expected 8 rooms, got %d", len(rooms))
	}

	mains, deadends := 0, 0
	for _, r := range rooms {
		switch r.Type {
		case RoomMain:
			mains++
		case RoomDeadend:
			deadends++
		default:
			t.Errorf("Room %s has unknown type %q", r.ID, r.Type)
		}
	}
	if mains != 5 || deadends != 3 {
		t.Errorf("Expected 5 main / 3 deadend, got %d / %d", mains, deadends)
	}
}

func TestGenerateLinearWithDeadends_MainChain(t *testing.T) {
	rng := NewRNG(2)
	rooms := GenerateLinearWithDeadends(6, 0, TileEarth, 0, 0, rng)

	// Main rooms advance strictly to the right.
	for i := 1; i < len(rooms); i++ {
		if rooms[i].X <= rooms[i-1].X {
			t.Errorf("Main room %d at x=%d does not advance past predecessor x=%d",
				i, rooms[i].X, rooms[i-1].X)
		}
	}

	// Ends of the chain have one connection, middle rooms two.
	if len(rooms[0].Connections) != 1 {
		t.Errorf("First room has %d connections, want 1", len(rooms[0].Connections))
	}
	if len(rooms[5].Connections) != 1 {
		t.Errorf("Last room has %d connections, want 1", len(rooms[5].Connections))
	}
	for i := 1; i < 5; i++ {
		if len(rooms[i].Connections) != 2 {
			t.Errorf("Middle room %d has %d connections, want 2", i, len(rooms[i].Connections))
		}
	}
}

func TestGenerateLinearWithDeadends_Bidirectional(t *testing.T) {
	rng := NewRNG(3)
	rooms := GenerateLinearWithDeadends(4, 4, TileEarth, 0, 0, rng)

	for _, r := range rooms {
		for _, connID := range r.Connections {
			other := roomByID(rooms, connID)
			if other == nil {
				t.Fatalf("Room %s references unknown room %s", r.ID, connID)
			}
			found := false
			for _, back := range other.Connections {
				if back == r.ID {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Connection %s -> %s is not reciprocal", r.ID, connID)
			}
		}
	}
}

func TestGenerateLinearWithDeadends_DeadendAnchoring(t *testing.T) {
	rng := NewRNG(4)
	rooms := GenerateLinearWithDeadends(3, 5, TileEarth, 0, 0, rng)

	// Every deadend's first connection is its anchor; later deadends may
	// attach to it in turn, so one is a floor, not an exact count.
	for _, r := range rooms {
		if r.Type != RoomDeadend {
			continue
		}
		if len(r.Connections) < 1 {
			t.Errorf("Deadend %s has no connections", r.ID)
			continue
		}
		anchor := roomByID(rooms, r.Connections[0])
		if anchor == nil {
			t.Errorf("Deadend %s anchored to unknown room", r.ID)
		}
	}
}

func TestGenerateRoomTiles_CorridorMotif(t *testing.T) {
	rng := NewRNG(10)
	w, h := 20, 20
	tiles := GenerateRoomTiles(w, h, TileEarth, TileStone, nil, nil, rng)

	if len(tiles) != h || len(tiles[0]) != w {
		t.Fatalf("Tiles are %dx%d, want %dx%d", len(tiles[0]), len(tiles), w, h)
	}

	stone := 0
	for y := range tiles {
		for x := range tiles[y] {
			if tiles[y][x] == TileStone {
				stone++
			}
		}
	}
	// Corridor is 3-4 wide by 5-7 long.
	if stone < 3*5 || stone > 4*7 {
		t.Errorf("Corridor motif covers %d tiles, want between 15 and 28", stone)
	}
}

func TestGenerateRoomTiles_ObjectsOverride(t *testing.T) {
	rng := NewRNG(11)
	objects := []MapObject{{ID: "o1", Type: "rock", X: 0, Y: 0, Texture: TileLava}}
	tiles := GenerateRoomTiles(10, 10, TileEarth, TileStone, nil, objects, rng)

	if tiles[0][0] != TileLava {
		t.Errorf("Object texture not stamped: got %s", tiles[0][0])
	}
}

func TestNewAct_SectionChain(t *testing.T) {
	rng := NewRNG(20)
	sections := []SectionConfig{
		{Name: "First", RoomCount: 4},
		{Name: "Second", RoomCount: 6},
		{Name: "Third", RoomCount: 4},
	}
	act := NewAct("Act I", GoalFindArtifact, sections, rng)

	if act.Goal != GoalFindArtifact {
		t.Errorf("Goal = %q, want %q", act.Goal, GoalFindArtifact)
	}
	if len(act.Sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(act.Sections))
	}

	if act.Sections[0].Prev != "" {
		t.Error("First section should have no Prev")
	}
	if act.Sections[2].Next != "" {
		t.Error("Last section should have no Next")
	}
	for i := 0; i < 2; i++ {
		if act.Sections[i].Next != act.Sections[i+1].ID {
			t.Errorf("Section %d Next does not point at section %d", i, i+1)
		}
		if act.Sections[i+1].Prev != act.Sections[i].ID {
			t.Errorf("Section %d Prev does not point at section %d", i+1, i)
		}
	}

	// RoomCount main rooms plus RoomCount/2 deadends per section.
	for i, cfg := range sections {
		want := cfg.RoomCount + cfg.RoomCount/2
		if got := len(act.Sections[i].Rooms); got != want {
			t.Errorf("Section %d has %d rooms, want %d", i, got, want)
		}
	}
}
