package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/room"
	"github.com/wfunc/dungeonserver/services"
	"github.com/wfunc/dungeonserver/session"
)

// Server manages the RPC listener for out-of-band admin access.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational methods over net/rpc. Methods follow the
// net/rpc signature: exported method, pointer reply, error return.
type AdminService struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
	mapService     *services.MapService
}

func NewAdminService(rm *room.Manager, sm *session.Manager, ms *services.MapService) *AdminService {
	return &AdminService{
		roomManager:    rm,
		sessionManager: sm,
		mapService:     ms,
	}
}

// Register publishes the service under its default name.
func (as *AdminService) Register() error {
	return rpc.Register(as)
}

type StatsArgs struct{}

type StatsReply struct {
	Sessions int
	Rooms    int
	RoomIDs  []string
}

// Stats reports live session and room counts.
func (as *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.Sessions = as.sessionManager.Count()
	rooms := as.roomManager.ListRooms()
	reply.Rooms = len(rooms)
	for _, r := range rooms {
		reply.RoomIDs = append(reply.RoomIDs, r.ID)
	}
	return nil
}

type GenerateMapArgs struct {
	Name        string
	Width       int
	Height      int
	RoomCount   int
	MinRoomSize int
	MaxRoomSize int
	Seed        int64
}

type GenerateMapReply struct {
	Name   string
	Width  int
	Height int
	Rooms  int
}

// GenerateMap runs the grid generator and saves the result, same path the
// WebSocket generate_map handler takes.
func (as *AdminService) GenerateMap(args *GenerateMapArgs, reply *GenerateMapReply) error {
	generated, err := as.mapService.GenerateAndSave(args.Name, dungeon.GenerateConfig{
		Width:       args.Width,
		Height:      args.Height,
		RoomCount:   args.RoomCount,
		MinRoomSize: args.MinRoomSize,
		MaxRoomSize: args.MaxRoomSize,
		Seed:        args.Seed,
	})
	if err != nil {
		return err
	}
	reply.Name = args.Name
	reply.Width = generated.Width
	reply.Height = generated.Height
	reply.Rooms = len(generated.Rooms)
	return nil
}

type DeleteMapArgs struct {
	Name string
}

type DeleteMapReply struct {
	Deleted bool
}

// DeleteMap removes a stored map by name.
func (as *AdminService) DeleteMap(args *DeleteMapArgs, reply *DeleteMapReply) error {
	if err := as.mapService.Delete(args.Name); err != nil {
		return err
	}
	reply.Deleted = true
	return nil
}
