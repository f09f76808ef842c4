package network

import (
	"encoding/json"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/player"
)

// Client → server message types.
const (
	MsgMove           = "move"
	MsgAttack         = "attack"
	MsgListRooms      = "list_rooms"
	MsgCreateRoom     = "create_room"
	MsgEditRoom       = "edit_room"
	MsgDeleteRoom     = "delete_room"
	MsgJoinRoom       = "join_room"
	MsgLeaveRoom      = "leave_room"
	MsgAddChatMessage = "add_chat_message"
	MsgRequestSection = "request_section"
	MsgStartGame      = "start_game"
	MsgGetRoom        = "get_room"
	MsgGenerateMap    = "generate_map"
	MsgLoadMap        = "load_map"
	MsgListMaps       = "list_maps"
	MsgDeleteMap      = "delete_map"
)

// Server → client message types.
const (
	MsgID           = "id"
	MsgPlayers      = "players"
	MsgMap          = "map"
	MsgMapsList     = "maps_list"
	MsgMapGenerated = "map_generated"
	MsgMapDeleted   = "map_deleted"
	MsgRoomsList    = "rooms_list"
	MsgRoomCreated  = "room_created"
	MsgRoomEdited   = "room_edited"
	MsgRoomDeleted  = "room_deleted"
	MsgRoomJoined   = "room_joined"
	MsgRoomLeft     = "room_left"
	MsgChatMessage  = "chat_message"
	MsgSection      = "section"
	MsgGameStarted  = "game_started"
	MsgRoom         = "room"
	MsgError        = "error"
)

// Header is the first decoding stage of an inbound envelope: just the type
// discriminant. The dispatcher switches on it and decodes the matching
// payload struct as the second stage.
type Header struct {
	Type string `json:"type"`
}

// DecodeHeader splits an inbound frame into its discriminant and raw body.
func DecodeHeader(data []byte) (Header, json.RawMessage, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, nil, err
	}
	return h, json.RawMessage(data), nil
}

// --- Client payloads, one struct per message type ---

type MovePayload struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Direction      string  `json:"direction"`
	IsMoving       bool    `json:"isMoving"`
	IsAttacking    bool    `json:"isAttacking"`
	IsRunAttacking bool    `json:"isRunAttacking"`
	IsDead         bool    `json:"isDead"`
	IsHurt         bool    `json:"isHurt"`
	DeathDirection string  `json:"deathDirection"`
}

type AttackPayload struct {
	TargetX int `json:"targetX"`
	TargetY int `json:"targetY"`
}

type CreateRoomPayload struct {
	Name string `json:"name"`
}

type EditRoomPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomIDPayload struct {
	ID string `json:"id"`
}

type ChatPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type SectionRequestPayload struct {
	RoomID       string `json:"roomId"`
	ActIndex     int    `json:"actIndex"`
	SectionIndex int    `json:"sectionIndex"`
}

type StartGamePayload struct {
	RoomID string `json:"roomId"`
}

type GetRoomPayload struct {
	RoomID string `json:"roomId"`
}

type GenerateMapPayload struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RoomCount   int    `json:"roomCount"`
	MinRoomSize int    `json:"minRoomSize"`
	MaxRoomSize int    `json:"maxRoomSize"`
	Seed        int64  `json:"seed"`
}

type LoadMapPayload struct {
	Name string `json:"name"`
}

// --- Server messages ---

type IDMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func NewIDMessage(id string) IDMessage {
	return IDMessage{Type: MsgID, ID: id}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: message}
}

type PlayersMessage struct {
	Type    string                 `json:"type"`
	Players []player.CharacterData `json:"players"`
}

type MapMessage struct {
	Type   string         `json:"type"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Map    dungeon.Grid   `json:"map"`
	Rooms  []dungeon.Rect `json:"rooms"`
	Seed   int64          `json:"seed,omitempty"`
}

type MapsListMessage struct {
	Type string   `json:"type"`
	Maps []string `json:"maps"`
}

type MapGeneratedMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type MapDeletedMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// RoomView is the outward shape of a lobby room: the live player registry
// and the generated map are stripped, clients request sections separately.
type RoomView struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Admin   string               `json:"admin"`
	Players []string             `json:"players"`
	Status  string               `json:"status"`
	Chat    []models.ChatMessage `json:"chat,omitempty"`
}

// RoomSummary is RoomView plus the number of currently connected members,
// used for the rooms list.
type RoomSummary struct {
	RoomView
	UserCount int `json:"userCount"`
}

type RoomsListMessage struct {
	Type  string        `json:"type"`
	Rooms []RoomSummary `json:"rooms"`
}

type RoomCreatedMessage struct {
	Type string   `json:"type"`
	Room RoomView `json:"room"`
}

type RoomEditedMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomDeletedMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type RoomJoinedMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type RoomLeftMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type ChatBroadcastMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type SectionMessage struct {
	Type         string           `json:"type"`
	ActIndex     int              `json:"actIndex"`
	SectionIndex int              `json:"sectionIndex"`
	Section      *dungeon.Section `json:"section"`
}

type GameStartedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type RoomMessage struct {
	Type string   `json:"type"`
	Room RoomView `json:"room"`
}
