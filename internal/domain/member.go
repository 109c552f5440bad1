package domain

// Member is what a live connection speaks for once it has joined a room.
// No transport or lifecycle logic here.
type Member struct {
	RoomCode      RoomCode
	ParticipantID ParticipantID
}

func NewMember(code RoomCode, pid ParticipantID) *Member {
	return &Member{RoomCode: code, ParticipantID: pid}
}

// Joined reports whether the connection is bound to a room.
func (m *Member) Joined() bool {
	return m != nil && m.RoomCode != "" && m.ParticipantID != ""
}
