package dungeon

// TileType enumerates the surface of a single grid cell. The act 1 palette is
// earth/grass/stone; later acts extend it with sand and lava.
type TileType string

const (
	TileEarth TileType = "earth"
	TileGrass TileType = "grass"
	TileStone TileType = "stone"
	TileSand  TileType = "sand"
	TileLava  TileType = "lava"
)

// Grid is a rectangular tile map indexed [y][x].
type Grid [][]TileType

// NewGrid returns a height×width grid with every cell set to fill.
func NewGrid(width, height int, fill TileType) Grid {
	g := make(Grid, height)
	for y := range g {
		row := make([]TileType, width)
		for x := range row {
			row[x] = fill
		}
		g[y] = row
	}
	return g
}

// Rect is a placed room rectangle on the global grid (x,y = top-left corner).
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Center returns the rectangle's center cell.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// OverlapsWithBuffer reports whether r and other intersect when other is
// inflated by buffer tiles on every side. Placed rooms keep a 1-tile gap.
func (r Rect) OverlapsWithBuffer(other Rect, buffer int) bool {
	return r.X < other.X+other.W+buffer &&
		r.X+r.W+buffer > other.X &&
		r.Y < other.Y+other.H+buffer &&
		r.Y+r.H+buffer > other.Y
}

// RoomType tags a topology room as part of the main path or as a deadend.
type RoomType string

const (
	RoomMain    RoomType = "main"
	RoomDeadend RoomType = "deadend"
)

// MapObject is a structure or decoration stamped into a room's local tiles.
type MapObject struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"` // e.g. "house", "temple", "cave"
	X          int                    `json:"x"`
	Y          int                    `json:"y"`
	W          int                    `json:"w"`
	H          int                    `json:"h"`
	Texture    TileType               `json:"texture,omitempty"`
	Tiles      Grid                   `json:"tiles,omitempty"`
	Entrance   *Point                 `json:"entrance,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MonsterSpawn declares how many monsters of a type live in a room.
type MonsterSpawn struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Room is a topology room: a rectangle with its own locally generated tile
// grid and bidirectional connectivity to other rooms. Immutable after
// generation except for gameplay overlays (objects, monsters).
type Room struct {
	ID          string         `json:"id"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	W           int            `json:"w"`
	H           int            `json:"h"`
	Type        RoomType       `json:"type"`
	Connections []string       `json:"connections"`
	Texture     TileType       `json:"texture"`
	Tiles       Grid           `json:"tiles"`
	Objects     []MapObject    `json:"objects"`
	Structures  []MapObject    `json:"structures"`
	Monsters    []MonsterSpawn `json:"monsters"`
}

// Section is a chained group of rooms within an act. Sections link through
// Prev/Next section ids: the first section has no Prev, the last no Next.
type Section struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rooms       []*Room  `json:"rooms"`
	Texture     TileType `json:"texture,omitempty"`
	Prev        string   `json:"prev,omitempty"`
	Next        string   `json:"next,omitempty"`
}

// Suggested act goals. Goal stays a free-form string so content can add more.
const (
	GoalFindArtifact   = "find_artifact"
	GoalKillBoss       = "kill_boss"
	GoalRescuePrisoner = "rescue_prisoner"
)

// Act is the top-level narrative unit: an ordered list of sections plus a
// goal classifier. Acts are generated once per game session and frozen.
type Act struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Goal        string     `json:"goal"`
	Description string     `json:"description"`
	Sections    []*Section `json:"sections"`
}
