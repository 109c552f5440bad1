package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// RoomManagerImpl owns one broadcast group per room code.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.RoomService
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{rooms: make(map[domain.RoomCode]core.RoomService)}
}

func (f *RoomManagerImpl) GetOrCreate(code domain.RoomCode) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[code]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[code]; ok {
		return room
	}
	room = core.NewRoomService(code)
	f.rooms[code] = room
	return room
}

func (f *RoomManagerImpl) Get(code domain.RoomCode) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[code]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for code, r := range f.rooms {
		out = append(out, core.RoomInfo{Code: code, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) StopRoom(code domain.RoomCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[code]; ok {
		delete(f.rooms, code)
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("broadcast group stopped")
	}
}
