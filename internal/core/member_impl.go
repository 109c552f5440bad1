package core

import (
	"sync/atomic"

	"github.com/dkeye/SparkCircle/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
// Both halves are swapped atomically so readers never need a lock.
type memberSession struct {
	meta atomic.Pointer[domain.Member]
	sig  atomic.Pointer[signalBox]
}

type signalBox struct{ conn SignalConnection }

func NewMemberSession(meta *domain.Member) MemberSession {
	m := &memberSession{}
	m.meta.Store(meta)
	return m
}

func (m *memberSession) Meta() *domain.Member { return m.meta.Load() }

func (m *memberSession) Signal() SignalConnection {
	if b := m.sig.Load(); b != nil {
		return b.conn
	}
	return nil
}

func (m *memberSession) UpdateMeta(meta *domain.Member) MemberSession {
	m.meta.Store(meta)
	return m
}

func (m *memberSession) UpdateSignal(conn SignalConnection) MemberSession {
	m.sig.Store(&signalBox{conn: conn})
	return m
}
