package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/player"
	"github.com/wfunc/dungeonserver/room"
	"github.com/wfunc/dungeonserver/session"
	"github.com/wfunc/dungeonserver/state"
)

// Fallback generator parameters for generate_map requests that omit fields.
const (
	defaultMapWidth    = 80
	defaultMapHeight   = 40
	defaultRoomCount   = 10
	defaultMinRoomSize = 4
	defaultMaxRoomSize = 10
)

// handleMessage decodes one inbound frame and routes it. A panic in any
// handler is confined to this message; the connection stays up.
func (s *GameServer) handleMessage(sess *session.Session, data []byte) {
	start := time.Now()
	s.monitor.IncMessagesReceived()

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("panic handling message from session %s: %v", sess.GetID(), r)
			sess.Send(network.NewErrorMessage("Internal server error"))
		}
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	header, raw, err := network.DecodeHeader(data)
	if err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	switch header.Type {
	case network.MsgMove:
		s.handleMove(sess, raw)
	case network.MsgAttack:
		s.handleAttack(sess, raw)
	case network.MsgListRooms:
		sess.Send(s.roomsListMessage())
	case network.MsgCreateRoom:
		s.handleCreateRoom(sess, raw)
	case network.MsgEditRoom:
		s.handleEditRoom(sess, raw)
	case network.MsgDeleteRoom:
		s.handleDeleteRoom(sess, raw)
	case network.MsgJoinRoom:
		s.handleJoinRoom(sess, raw)
	case network.MsgLeaveRoom:
		s.handleLeaveRoom(sess, raw)
	case network.MsgAddChatMessage:
		s.handleChatMessage(sess, raw)
	case network.MsgRequestSection:
		s.handleRequestSection(sess, raw)
	case network.MsgStartGame:
		s.handleStartGame(sess, raw)
	case network.MsgGetRoom:
		s.handleGetRoom(sess, raw)
	case network.MsgGenerateMap:
		s.handleGenerateMap(sess, raw)
	case network.MsgLoadMap:
		s.handleLoadMap(sess, raw)
	case network.MsgListMaps:
		s.handleListMaps(sess)
	case network.MsgDeleteMap:
		s.handleDeleteMap(sess, raw)
	default:
		logger.Log.Infof("Unknown message type: %s", header.Type)
		sess.Send(network.NewErrorMessage("Unknown message type"))
	}
}

// --- 游戏内操作 ---

func (s *GameServer) handleMove(sess *session.Session, raw json.RawMessage) {
	var payload network.MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, ok := s.currentRoom(sess)
	if !ok {
		sess.Send(network.NewErrorMessage("Not in a room"))
		return
	}

	registry := r.Registry()
	// 首次移动时注册默认角色
	firstMove := false
	if _, exists := registry.GetActiveCharacter(sess.Username); !exists {
		registry.AddCharacter(sess.Username, player.CharacterData{
			Name:      sess.Username,
			Class:     "warrior",
			X:         payload.X,
			Y:         payload.Y,
			Direction: payload.Direction,
		})
		firstMove = true
	}

	changed, ok := registry.ApplyMove(sess.Username, player.MoveUpdate{
		X:              payload.X,
		Y:              payload.Y,
		Direction:      payload.Direction,
		IsMoving:       payload.IsMoving,
		IsAttacking:    payload.IsAttacking,
		IsRunAttacking: payload.IsRunAttacking,
		IsDead:         payload.IsDead,
		IsHurt:         payload.IsHurt,
		DeathDirection: payload.DeathDirection,
	})
	if ok && (changed || firstMove) {
		r.BroadcastRoster()
	}
}

func (s *GameServer) handleAttack(sess *session.Session, raw json.RawMessage) {
	var payload network.AttackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, ok := s.currentRoom(sess)
	if !ok {
		sess.Send(network.NewErrorMessage("Not in a room"))
		return
	}

	hit := r.Registry().Attack(sess.Username, payload.TargetX, payload.TargetY, time.Now())
	if len(hit) > 0 {
		r.BroadcastRoster()
	}
}

// --- 房间管理 ---

func (s *GameServer) handleCreateRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.CreateRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}
	if payload.Name == "" {
		sess.Send(network.NewErrorMessage("Room name required"))
		return
	}

	r := s.roomManager.CreateRoom(payload.Name, sess.Username)
	sess.SetRoomID(r.ID)

	logger.Log.Infof("User %s created room %s (%s)", sess.Username, r.Name, r.ID)
	sess.Send(network.RoomCreatedMessage{Type: network.MsgRoomCreated, Room: s.roomView(r)})
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleEditRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.EditRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, err := s.roomManager.EditRoom(payload.ID, sess.Username, payload.Name)
	if err != nil {
		sess.Send(network.NewErrorMessage(roomErrorText(err)))
		return
	}

	s.broadcaster.BroadcastToMembers(r.GetMembers(), network.RoomEditedMessage{
		Type: network.MsgRoomEdited, ID: r.ID, Name: r.Name,
	})
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleDeleteRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.RoomIDPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	if err := s.roomManager.DeleteRoom(payload.ID, sess.Username); err != nil {
		sess.Send(network.NewErrorMessage(roomErrorText(err)))
		return
	}

	s.sessionManager.ClearRoom(payload.ID)
	s.broadcaster.BroadcastToAll(network.RoomDeletedMessage{Type: network.MsgRoomDeleted, ID: payload.ID})
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleJoinRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.RoomIDPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, exists := s.roomManager.GetRoom(payload.ID)
	if !exists {
		sess.Send(network.NewErrorMessage(roomErrorText(room.ErrRoomNotFound)))
		return
	}

	// 已是成员则视为重连, 直接重新挂上
	if !r.HasMember(sess.Username) {
		if _, err := s.roomManager.JoinRoom(payload.ID, sess.Username); err != nil {
			sess.Send(network.NewErrorMessage(roomErrorText(err)))
			return
		}
	}

	sess.SetRoomID(r.ID)
	sess.Send(network.RoomJoinedMessage{Type: network.MsgRoomJoined, ID: r.ID})
	r.BroadcastRoster()
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.RoomIDPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, err := s.roomManager.LeaveRoom(payload.ID, sess.Username)
	if err != nil {
		sess.Send(network.NewErrorMessage(roomErrorText(err)))
		return
	}

	sess.SetRoomID("")
	sess.Send(network.RoomLeftMessage{Type: network.MsgRoomLeft, ID: payload.ID})
	r.BroadcastRoster()
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleChatMessage(sess *session.Session, raw json.RawMessage) {
	var payload network.ChatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, msg, err := s.roomManager.AddChatMessage(payload.RoomID, sess.Username, payload.Text)
	if err != nil {
		sess.Send(network.NewErrorMessage(roomErrorText(err)))
		return
	}

	s.broadcaster.BroadcastToMembers(r.GetMembers(), network.ChatBroadcastMessage{
		Type:      network.MsgChatMessage,
		RoomID:    r.ID,
		Sender:    msg.Sender,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	})
}

func (s *GameServer) handleRequestSection(sess *session.Session, raw json.RawMessage) {
	var payload network.SectionRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, exists := s.roomManager.GetRoom(payload.RoomID)
	if !exists {
		sess.Send(network.NewErrorMessage(roomErrorText(room.ErrRoomNotFound)))
		return
	}

	if r.Map == nil || payload.ActIndex < 0 || payload.ActIndex >= len(r.Map.Acts) {
		sess.Send(network.NewErrorMessage("Act not found"))
		return
	}
	act := r.Map.Acts[payload.ActIndex]
	if payload.SectionIndex < 0 || payload.SectionIndex >= len(act.Sections) {
		sess.Send(network.NewErrorMessage("Section not found"))
		return
	}

	sess.Send(network.SectionMessage{
		Type:         network.MsgSection,
		ActIndex:     payload.ActIndex,
		SectionIndex: payload.SectionIndex,
		Section:      act.Sections[payload.SectionIndex],
	})
}

func (s *GameServer) handleStartGame(sess *session.Session, raw json.RawMessage) {
	var payload network.StartGamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, err := s.roomManager.SetRoomStatus(payload.RoomID, sess.Username, state.StatusGame)
	if err != nil {
		sess.Send(network.NewErrorMessage(roomErrorText(err)))
		return
	}

	s.broadcaster.BroadcastToMembers(r.GetMembers(), network.GameStartedMessage{
		Type: network.MsgGameStarted, RoomID: r.ID,
	})
	s.broadcaster.BroadcastToAll(s.roomsListMessage())
}

func (s *GameServer) handleGetRoom(sess *session.Session, raw json.RawMessage) {
	var payload network.GetRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	r, exists := s.roomManager.GetRoom(payload.RoomID)
	if !exists {
		sess.Send(network.NewErrorMessage(roomErrorText(room.ErrRoomNotFound)))
		return
	}
	sess.Send(network.RoomMessage{Type: network.MsgRoom, Room: s.roomView(r)})
}

// --- 地图 ---

func (s *GameServer) handleGenerateMap(sess *session.Session, raw json.RawMessage) {
	var payload network.GenerateMapPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}
	if payload.Name == "" {
		sess.Send(network.NewErrorMessage("Map name required"))
		return
	}

	cfg := dungeon.GenerateConfig{
		Width:       payload.Width,
		Height:      payload.Height,
		RoomCount:   payload.RoomCount,
		MinRoomSize: payload.MinRoomSize,
		MaxRoomSize: payload.MaxRoomSize,
		Seed:        payload.Seed,
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultMapWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultMapHeight
	}
	if cfg.RoomCount <= 0 {
		cfg.RoomCount = defaultRoomCount
	}
	if cfg.MinRoomSize <= 0 {
		cfg.MinRoomSize = defaultMinRoomSize
	}
	if cfg.MaxRoomSize <= 0 {
		cfg.MaxRoomSize = defaultMaxRoomSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	generated, err := s.mapService.GenerateAndSave(payload.Name, cfg)
	if err != nil {
		sess.Send(network.NewErrorMessage("Failed to save map"))
		return
	}
	s.monitor.IncMapsGenerated()

	sess.Send(network.MapGeneratedMessage{Type: network.MsgMapGenerated, Name: payload.Name})
	sess.Send(mapMessage(generated))
}

func (s *GameServer) handleLoadMap(sess *session.Session, raw json.RawMessage) {
	var payload network.LoadMapPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	generated, err := s.mapService.Load(payload.Name)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			sess.Send(network.NewErrorMessage("Map not found"))
		} else {
			sess.Send(network.NewErrorMessage("Failed to load map"))
		}
		return
	}
	sess.Send(mapMessage(generated))
}

func (s *GameServer) handleListMaps(sess *session.Session) {
	names, err := s.mapService.List()
	if err != nil {
		sess.Send(network.NewErrorMessage("Failed to list maps"))
		return
	}
	if names == nil {
		names = []string{}
	}
	sess.Send(network.MapsListMessage{Type: network.MsgMapsList, Maps: names})
}

func (s *GameServer) handleDeleteMap(sess *session.Session, raw json.RawMessage) {
	var payload network.LoadMapPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		sess.Send(network.NewErrorMessage("Invalid JSON format"))
		return
	}

	if err := s.mapService.Delete(payload.Name); err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			sess.Send(network.NewErrorMessage("Map not found"))
		} else {
			sess.Send(network.NewErrorMessage("Failed to delete map"))
		}
		return
	}
	sess.Send(network.MapDeletedMessage{Type: network.MsgMapDeleted, Name: payload.Name})
}

// --- helpers ---

// currentRoom resolves the room a session acts in, falling back to the lobby
// membership when the session has not joined explicitly this connection.
func (s *GameServer) currentRoom(sess *session.Session) (*room.Room, bool) {
	if roomID := sess.GetRoomID(); roomID != "" {
		if r, exists := s.roomManager.GetRoom(roomID); exists {
			return r, true
		}
	}
	if r, found := s.roomManager.FindRoomByMember(sess.Username); found {
		sess.SetRoomID(r.ID)
		return r, true
	}
	return nil, false
}

func (s *GameServer) roomView(r *room.Room) network.RoomView {
	return network.RoomView{
		ID:      r.ID,
		Name:    r.Name,
		Admin:   r.Admin,
		Players: r.GetMembers(),
		Status:  r.GetStatus(),
		Chat:    r.GetChat(),
	}
}

func (s *GameServer) roomsListMessage() network.RoomsListMessage {
	rooms := s.roomManager.ListRooms()
	summaries := make([]network.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		userCount := 0
		for _, member := range r.GetMembers() {
			if len(s.sessionManager.GetByUsername(member)) > 0 {
				userCount++
			}
		}
		summaries = append(summaries, network.RoomSummary{
			RoomView:  s.roomView(r),
			UserCount: userCount,
		})
	}
	return network.RoomsListMessage{Type: network.MsgRoomsList, Rooms: summaries}
}

func mapMessage(generated *dungeon.GeneratedMap) network.MapMessage {
	return network.MapMessage{
		Type:   network.MsgMap,
		Width:  generated.Width,
		Height: generated.Height,
		Map:    generated.Grid,
		Rooms:  generated.Rooms,
		Seed:   generated.Seed,
	}
}

func roomErrorText(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, room.ErrNotAdmin):
		return "Only the room admin may do this"
	case errors.Is(err, room.ErrAlreadyMember):
		return "Already a member of this room"
	case errors.Is(err, room.ErrUnknownStatus):
		return "Unknown room status"
	case errors.Is(err, state.ErrTransitionNotAllowed):
		return "Room state does not allow this"
	default:
		return "Internal server error"
	}
}
