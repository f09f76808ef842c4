// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/player"
	"github.com/wfunc/dungeonserver/state"
)

// maxChatMessages caps the retained chat backlog per room; the oldest
// messages are evicted first.
const maxChatMessages = 50

// defaultTickInterval drives the per-room update loop when no interval is
// configured.
const defaultTickInterval = 50 * time.Millisecond

// Room 是游戏房间的核心结构. Members is the persistent lobby membership,
// registry holds the live in-game characters; the two are independent,
// a member may be offline while still belonging to the room.
type Room struct {
	ID        string
	Name      string
	Admin     string
	CreatedAt time.Time

	Map *models.MapData // frozen at creation

	StateMachine state.StateMachine

	members     []string
	chat        []models.ChatMessage
	registry    *player.Manager
	broadcaster Broadcaster
	mutex       sync.RWMutex
	tick        time.Duration
	ticker      *time.Ticker
	closeChan   chan bool
	closeOnce   sync.Once
}

// NewRoom 创建一个新房间. The admin is the first member.
func NewRoom(id, name, admin string, mapData *models.MapData, broadcaster Broadcaster, tick time.Duration) *Room {
	if tick <= 0 {
		tick = defaultTickInterval
	}
	room := &Room{
		ID:          id,
		Name:        name,
		Admin:       admin,
		CreatedAt:   time.Now(),
		Map:         mapData,
		members:     []string{admin},
		registry:    player.NewManager(),
		broadcaster: broadcaster,
		tick:        tick,
		closeChan:   make(chan bool),
	}

	// 初始化状态机，将房间自身(room)作为上下文传入
	room.StateMachine = state.NewBaseStateMachine(state.NewLobbyState(room))
	// 停用的房间必须先重新激活才能开始游戏
	room.StateMachine.AddTransition(state.NewInactiveState(room), state.NewGameState(room), func() bool {
		return false
	})

	// 启动房间心跳
	room.ticker = time.NewTicker(tick)
	go room.loop()

	return room
}

// --- 实现 state.RoomContext 接口 ---

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

// Registry returns the live character registry of this room.
func (r *Room) Registry() *player.Manager {
	return r.registry
}

// ChangeState 改变房间的状态机状态
func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

// BroadcastRoster pushes the current character roster to every member.
func (r *Room) BroadcastRoster() {
	if r.broadcaster == nil {
		return
	}
	r.broadcaster.BroadcastRoster(r.ID, r.GetMembers(), r.registry)
}

// --- 房间核心逻辑 ---

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() string {
	if r.StateMachine == nil {
		return state.StatusInactive
	}
	current := r.StateMachine.GetCurrentState()
	if current == nil {
		return state.StatusInactive
	}
	return current.GetID()
}

// SetStatus 设置房间的业务状态
func (r *Room) SetStatus(status string) error {
	switch status {
	case state.StatusActive:
		return r.ChangeState(state.NewLobbyState(r))
	case state.StatusGame:
		if err := r.ChangeState(state.NewGameState(r)); err != nil {
			return err
		}
		// 游戏开始后, 所有成员绑定到该房间
		for _, member := range r.GetMembers() {
			r.registry.AddUser(member, "")
			r.registry.SetActiveRoom(member, r.ID)
		}
		return nil
	case state.StatusInactive:
		return r.ChangeState(state.NewInactiveState(r))
	default:
		return ErrUnknownStatus
	}
}

// AddMember 添加成员. Returns false when the user already belongs to the room.
func (r *Room) AddMember(username string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, m := range r.members {
		if m == username {
			return false
		}
	}
	r.members = append(r.members, username)
	return true
}

// RemoveMember 移除成员. Removing a non-member is a no-op. The live
// character state of the departing user is dropped with the membership.
func (r *Room) RemoveMember(username string) {
	r.mutex.Lock()
	for i, m := range r.members {
		if m == username {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.mutex.Unlock()

	r.registry.RemoveUser(username)
}

func (r *Room) HasMember(username string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, m := range r.members {
		if m == username {
			return true
		}
	}
	return false
}

// GetMembers 获取房间中的所有成员 (copy)
func (r *Room) GetMembers() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	members := make([]string, len(r.members))
	copy(members, r.members)
	return members
}

// AddChatMessage appends to the room chat, evicting the oldest entry once
// the backlog exceeds maxChatMessages.
func (r *Room) AddChatMessage(msg models.ChatMessage) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatMessages {
		r.chat = r.chat[len(r.chat)-maxChatMessages:]
	}
}

// GetChat 获取聊天记录 (copy)
func (r *Room) GetChat() []models.ChatMessage {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	chat := make([]models.ChatMessage, len(r.chat))
	copy(chat, r.chat)
	return chat
}

// Record snapshots the room for persistence. The live registry and the
// state machine are not stored, they are rebuilt on restore.
func (r *Room) Record() *models.RoomRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	members := make([]string, len(r.members))
	copy(members, r.members)
	chat := make([]models.ChatMessage, len(r.chat))
	copy(chat, r.chat)

	return &models.RoomRecord{
		ID:      r.ID,
		Name:    r.Name,
		Admin:   r.Admin,
		Players: members,
		Status:  r.GetStatus(),
		Chat:    chat,
		Map:     r.Map,
	}
}

// loop 是房间的主循环，定时驱动状态更新
func (r *Room) loop() {
	for {
		select {
		case <-r.ticker.C:
			r.Update()
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

// Update 由主循环调用. 每个 tick 先清理过期的受击状态, 不依赖当前房间状态,
// 然后驱动状态机更新.
func (r *Room) Update() {
	if expired := r.registry.SweepHurt(time.Now()); len(expired) > 0 {
		r.BroadcastRoster()
	}
	if r.StateMachine != nil {
		currentState := r.StateMachine.GetCurrentState()
		if currentState != nil {
			currentState.OnUpdate()
		}
	}
}

// Close 关闭房间，停止主循环
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}
