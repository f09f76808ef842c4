package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/dungeonserver/broadcast"
	"github.com/wfunc/dungeonserver/config"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monitor"
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/room"
	dungeonrpc "github.com/wfunc/dungeonserver/rpc"
	"github.com/wfunc/dungeonserver/services"
	"github.com/wfunc/dungeonserver/session"
	"github.com/wfunc/dungeonserver/timer"
)

// maxSessionIdle is how long a connection may stay silent before the reaper
// closes it. Closing unblocks the read loop, which runs the normal
// disconnect cleanup.
const maxSessionIdle = 30 * time.Minute

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	userService    *services.UserService
	mapService     *services.MapService
	broadcaster    *broadcast.RoomBroadcaster
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *dungeonrpc.Server
	mutex          sync.Mutex
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, store persistence.Store, userService *services.UserService, mapService *services.MapService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewRoomManager(store),
		sessionManager: session.NewManager(),
		userService:    userService,
		mapService:     mapService,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)
	s.roomManager.SetBroadcaster(s.broadcaster)
	s.roomManager.SetTickInterval(cfg.Server.TickInterval)

	if err := s.roomManager.Restore(); err != nil {
		logger.Log.Errorf("恢复房间失败: %v", err)
	}

	return s
}

// RoomManager exposes the lobby for the RPC admin service.
func (s *GameServer) RoomManager() *room.Manager {
	return s.roomManager
}

// SessionManager exposes the session registry for the RPC admin service.
func (s *GameServer) SessionManager() *session.Manager {
	return s.sessionManager
}

func (s *GameServer) Start() error {
	// RPC服务器
	if addr := s.cfg.Server.RPCAddress; addr != "" {
		rpcServer, err := dungeonrpc.NewServer(addr)
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer

		admin := dungeonrpc.NewAdminService(s.roomManager, s.sessionManager, s.mapService)
		if err := admin.Register(); err != nil {
			return err
		}
		go s.rpcServer.Start()
	}

	// 定时刷新房间指标
	s.timers = timer.NewManager()
	s.timers.Schedule(10*time.Second, 10*time.Second, func() {
		s.monitor.SetActiveRooms(len(s.roomManager.ListRooms()))
	})

	// 清理长时间无活动的连接
	s.timers.Schedule(time.Minute, time.Minute, func() {
		for _, sess := range s.sessionManager.Idle(maxSessionIdle) {
			logger.Log.Infof("Closing idle session %s (user %s)", sess.GetID(), sess.Username)
			sess.Close()
		}
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	if s.timers != nil {
		s.timers.Stop()
	}
	s.roomManager.CloseAll()
}

// handleWebSocket authenticates before upgrading. A missing or invalid token
// is rejected with plain HTTP 401, the socket never opens.
func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username, err := s.userService.ValidateToken(bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, username)
}

// bearerToken pulls the token from the Authorization header, falling back to
// the token query parameter for browser WebSocket clients that cannot set
// headers.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *GameServer) handleConnection(conn *websocket.Conn, username string) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetReadLimit(s.cfg.Server.MaxMessageSize)

	sess := session.NewSession(uuid.New().String(), username, wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, user %s, session ID: %s", wsConn.RemoteAddr(), username, sess.GetID())

	// 连接握手: 会话ID和当前房间列表
	sess.Send(network.NewIDMessage(sess.GetID()))
	sess.Send(s.roomsListMessage())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()

		// 断线时注销角色, 房间成员资格保留
		if roomID := sess.GetRoomID(); roomID != "" {
			if r, exists := s.roomManager.GetRoom(roomID); exists {
				r.Registry().RemoveUser(username)
				r.BroadcastRoster()
			}
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			data, err := wsConn.ReadMessage()
			if err != nil {
				return
			}
			sess.Touch()
			s.handleMessage(sess, data)
		}
	}
}
