package core

import (
	"github.com/dkeye/SparkCircle/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

func (r *PublishResult) Merge(other PublishResult) {
	r.SendTo += other.SendTo
	r.Dropped = append(r.Dropped, other.Dropped...)
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID           SessionID            `json:"sid"`
	ParticipantID domain.ParticipantID `json:"participantId"`
}

// Render builds the frame one member should receive. A nil frame skips the member.
type Render func(sid SessionID, ms MemberSession) Frame

// RoomService is the broadcast group of one room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Code() domain.RoomCode
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	// Broadcast sends data to every member except from.
	Broadcast(from SessionID, data Frame) PublishResult
	// Publish sends each member its own rendering of an event.
	Publish(render Render) PublishResult
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"roomCode"`
	MemberCount int             `json:"connections"`
}

type RoomManager interface {
	GetOrCreate(code domain.RoomCode) RoomService
	Get(code domain.RoomCode) (RoomService, bool)
	List() []RoomInfo
	StopRoom(code domain.RoomCode)
}
