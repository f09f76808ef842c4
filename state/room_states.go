package state

import (
	"time"

	"github.com/wfunc/dungeonserver/logger"
)

// Room lifecycle status labels, also persisted on the room record.
const (
	StatusActive   = "ACTIVE"
	StatusGame     = "GAME"
	StatusInactive = "INACTIVE"
)

// LobbyState 房间等待状态
type LobbyState struct {
	RoomStateBase
}

// NewLobbyState 创建新的等待状态
func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{
		RoomStateBase: RoomStateBase{
			ID:   StatusActive,
			Room: room,
		},
	}
}

// OnEnter 进入等待状态
func (s *LobbyState) OnEnter() {
	logger.Log.Infof("房间 %s 进入等待状态", s.Room.GetID())
}

// GameState 游戏进行状态
type GameState struct {
	RoomStateBase
	StartedAt time.Time
}

// NewGameState 创建新的游戏状态
func NewGameState(room RoomContext) *GameState {
	return &GameState{
		RoomStateBase: RoomStateBase{
			ID:   StatusGame,
			Room: room,
		},
	}
}

// OnEnter 进入游戏状态
func (s *GameState) OnEnter() {
	s.StartedAt = time.Now()
	logger.Log.Infof("房间 %s 进入游戏状态", s.Room.GetID())
}

// OnExit 退出游戏状态
func (s *GameState) OnExit() {
	logger.Log.Infof("房间 %s 退出游戏状态, 持续 %v", s.Room.GetID(), time.Since(s.StartedAt))
}

// OnUpdate 游戏状态更新
// 每个 tick 都向所有成员重发名单, 掉线重连的客户端靠这个重新同步.
func (s *GameState) OnUpdate() {
	s.Room.BroadcastRoster()
}

// InactiveState 房间停用状态
type InactiveState struct {
	RoomStateBase
}

// NewInactiveState 创建新的停用状态
func NewInactiveState(room RoomContext) *InactiveState {
	return &InactiveState{
		RoomStateBase: RoomStateBase{
			ID:   StatusInactive,
			Room: room,
		},
	}
}

// OnEnter 进入停用状态
func (s *InactiveState) OnEnter() {
	logger.Log.Infof("房间 %s 已停用", s.Room.GetID())
}
