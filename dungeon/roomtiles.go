package dungeon

// GenerateRoomTiles builds a room's local grid: the base texture everywhere,
// a centered corridor motif (3-4 tiles wide, 5-7 long), then structures and
// simple objects stamped on top. Structures win over the corridor, objects
// win over structures.
func GenerateRoomTiles(w, h int, base, corridor TileType, structures, objects []MapObject, rng *RNG) Grid {
	tiles := NewGrid(w, h, base)

	corridorWidth := rng.IntRange(3, 4)
	corridorLength := rng.IntRange(5, 7)
	startX := (w - corridorWidth) / 2
	startY := (h - corridorLength) / 2

	for y := startY; y < startY+corridorLength && y < h; y++ {
		for x := startX; x < startX+corridorWidth && x < w; x++ {
			if y >= 0 && x >= 0 {
				tiles[y][x] = corridor
			}
		}
	}

	for _, structure := range structures {
		if structure.Tiles == nil {
			continue
		}
		for sy := range structure.Tiles {
			for sx := range structure.Tiles[sy] {
				tx := structure.X + sx
				ty := structure.Y + sy
				if tx >= 0 && tx < w && ty >= 0 && ty < h && structure.Tiles[sy][sx] != "" {
					tiles[ty][tx] = structure.Tiles[sy][sx]
				}
			}
		}
	}

	for _, obj := range objects {
		if obj.Texture != "" && obj.X >= 0 && obj.X < w && obj.Y >= 0 && obj.Y < h {
			tiles[obj.Y][obj.X] = obj.Texture
		}
	}

	return tiles
}
