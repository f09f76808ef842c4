package dungeon

// maxPlacementAttempts bounds the reject-and-retry loop for one room. When a
// candidate keeps overlapping placed rooms the generator falls back to a
// deterministic adjacent position, so placement never fails and never spins.
const maxPlacementAttempts = 10

// GenerateConfig drives one run of the room-placement generator.
type GenerateConfig struct {
	Width         int   `json:"width"`
	Height        int   `json:"height"`
	RoomCount     int   `json:"roomCount"`
	MinRoomSize   int   `json:"minRoomSize"`
	MaxRoomSize   int   `json:"maxRoomSize"`
	CorridorWidth int   `json:"corridorWidth,omitempty"` // 0 or 1 = single-tile corridors
	Seed          int64 `json:"seed"`
}

// GeneratedMap is the result of a generation run: the global grid plus the
// placed room rectangles, together with the parameters that produced them.
type GeneratedMap struct {
	Grid   Grid   `json:"map"`
	Rooms  []Rect `json:"rooms"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Seed   int64  `json:"seed"`
}

// Generate builds a dungeon grid: stone everywhere, rooms carved to earth,
// consecutive rooms joined by axis-aligned corridors, and a decorative grass
// pass over each room. Identical configs yield identical output.
func Generate(cfg GenerateConfig) *GeneratedMap {
	rng := NewRNG(cfg.Seed)
	grid := NewGrid(cfg.Width, cfg.Height, TileStone)

	rooms := make([]Rect, 0, cfg.RoomCount)
	for i := 0; i < cfg.RoomCount; i++ {
		room := placeRoom(cfg, rng, rooms)
		rooms = append(rooms, room)
		carveRect(grid, room, TileEarth)
	}

	for i := 1; i < len(rooms); i++ {
		carveCorridor(grid, rooms[i-1], rooms[i], cfg.CorridorWidth)
	}

	for _, room := range rooms {
		decorateRoom(grid, room, rng)
	}

	return &GeneratedMap{
		Grid:   grid,
		Rooms:  rooms,
		Width:  cfg.Width,
		Height: cfg.Height,
		Seed:   cfg.Seed,
	}
}

// placeRoom samples candidate rectangles until one fits with a 1-tile buffer
// against every placed room. After maxPlacementAttempts it gives up on random
// placement and drops the room next to the previous one, clamped into bounds.
func placeRoom(cfg GenerateConfig, rng *RNG, placed []Rect) Rect {
	var cand Rect
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		cand = sampleRect(cfg, rng)
		if !overlapsAny(cand, placed) {
			return cand
		}
	}

	// Deterministic fallback: adjacent to the last room (or the corner when
	// nothing is placed yet). May touch other rooms; termination wins here.
	cand = sampleRect(cfg, rng)
	if len(placed) > 0 {
		prev := placed[len(placed)-1]
		cand.X = prev.X + prev.W + 1
		cand.Y = prev.Y
	} else {
		cand.X, cand.Y = 1, 1
	}
	return clampRect(cand, cfg.Width, cfg.Height)
}

func sampleRect(cfg GenerateConfig, rng *RNG) Rect {
	w := rng.IntRange(cfg.MinRoomSize, cfg.MaxRoomSize)
	h := rng.IntRange(cfg.MinRoomSize, cfg.MaxRoomSize)
	if w > cfg.Width-2 {
		w = cfg.Width - 2
	}
	if h > cfg.Height-2 {
		h = cfg.Height - 2
	}
	x := rng.IntRange(1, cfg.Width-w-1)
	y := rng.IntRange(1, cfg.Height-h-1)
	return clampRect(Rect{X: x, Y: y, W: w, H: h}, cfg.Width, cfg.Height)
}

func clampRect(r Rect, width, height int) Rect {
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	if r.X < 1 {
		r.X = 1
	}
	if r.Y < 1 {
		r.Y = 1
	}
	if r.X+r.W > width-1 {
		r.X = width - 1 - r.W
		if r.X < 1 {
			r.X = 1
			r.W = width - 2
		}
	}
	if r.Y+r.H > height-1 {
		r.Y = height - 1 - r.H
		if r.Y < 1 {
			r.Y = 1
			r.H = height - 2
		}
	}
	return r
}

func overlapsAny(cand Rect, placed []Rect) bool {
	for _, room := range placed {
		if cand.OverlapsWithBuffer(room, 1) {
			return true
		}
	}
	return false
}

func carveRect(grid Grid, room Rect, tile TileType) {
	for y := room.Y; y < room.Y+room.H; y++ {
		for x := room.X; x < room.X+room.W; x++ {
			setTile(grid, x, y, tile)
		}
	}
}

// carveCorridor walks from the previous room's center to the current one:
// along x to the target column, then along y to the target row. A corridor
// width above 1 replicates the walk across a ±width/2 band.
func carveCorridor(grid Grid, prev, curr Rect, corridorWidth int) {
	half := 0
	if corridorWidth > 1 {
		half = corridorWidth / 2
	}

	x, y := prev.Center()
	tx, ty := curr.Center()
	for x != tx {
		carveBand(grid, x, y, half)
		if x < tx {
			x++
		} else {
			x--
		}
	}
	for y != ty {
		carveBand(grid, x, y, half)
		if y < ty {
			y++
		} else {
			y--
		}
	}
	carveBand(grid, x, y, half)
}

func carveBand(grid Grid, x, y, half int) {
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			setTile(grid, x+dx, y+dy, TileEarth)
		}
	}
}

// decorateRoom converts up to ⌊area/4⌋ earth tiles to grass. Cells already
// converted (or corridor-free stone) are skipped, so the pass is idempotent
// per cell while still consuming a fixed number of draws per room.
func decorateRoom(grid Grid, room Rect, rng *RNG) {
	for i := 0; i < room.W*room.H/4; i++ {
		x := rng.IntRange(room.X, room.X+room.W-1)
		y := rng.IntRange(room.Y, room.Y+room.H-1)
		if tileAt(grid, x, y) == TileEarth {
			setTile(grid, x, y, TileGrass)
		}
	}
}

func setTile(grid Grid, x, y int, tile TileType) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
		grid[y][x] = tile
	}
}

func tileAt(grid Grid, x, y int) TileType {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
		return grid[y][x]
	}
	return TileStone
}
