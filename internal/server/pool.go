package server

import (
	"fmt"
	"log"
	"net"
	"sync"
)

// Pool tracks the connections attached to each editing session and the
// sticky error slot recorded for it. Broadcast frames go to every
// attached connection; dead connections are pruned as writes fail.
type Pool struct {
	mu  *sync.RWMutex
	m   map[string][]net.Conn
	e   map[string]*Error
	log *log.Logger
}

func NewPool(l *log.Logger) *Pool {
	return &Pool{
		mu:  &sync.RWMutex{},
		m:   make(map[string][]net.Conn),
		e:   make(map[string]*Error),
		log: l,
	}
}

func (p *Pool) AddSession(uid string, conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn == nil {
		p.m[uid] = []net.Conn{}
		return
	}
	p.m[uid] = []net.Conn{conn}
}

func (p *Pool) HasSession(uid string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.m[uid]
	return ok
}

func (p *Pool) AddConn(uid string, conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[uid] = append(p.m[uid], conn)
}

func (p *Pool) Broadcast(uid string, data []byte) error {
	// single write per frame keeps message boundaries intact for
	// WebSocket subscribers
	frame := append(intToBytes(uint32(len(data))), data...)
	p.mu.RLock()
	conns := make([]net.Conn, len(p.m[uid]))
	copy(conns, p.m[uid])
	p.mu.RUnlock()
	var firstErr error
	for _, conn := range conns {
		if _, err := conn.Write(frame); err != nil {
			p.removeConn(uid, conn)
			if firstErr == nil {
				firstErr = fmt.Errorf("error writing: %s", err.Error())
			}
		}
	}
	return firstErr
}

// WriteError records an error for a session. A critical error is never
// overwritten by a warning; use ForceWriteError to replace it.
func (p *Pool) WriteError(uid string, errType ErrorType, errMessage string) {
	p.mu.RLock()
	err, ok := p.e[uid]
	if ok && err.Type == ErrorTypeCritical && errType != ErrorTypeCritical {
		p.mu.RUnlock()
		return
	}
	p.mu.RUnlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.e[uid] = &Error{errType, errMessage}
}

func (p *Pool) ForceWriteError(uid string, errType ErrorType, errMessage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.e[uid] = &Error{errType, errMessage}
}

func (p *Pool) GetError(uid string) *Error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.e[uid]
}

func (p *Pool) ClearError(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.e, uid)
}

// RemoveSession closes every connection attached to the session and
// drops its error slot.
func (p *Pool) RemoveSession(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.m[uid] {
		_ = conn.Close()
	}
	delete(p.m, uid)
	delete(p.e, uid)
}

func (p *Pool) removeConn(uid string, conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = conn.Close()
	conns := p.m[uid]
	for i := range conns {
		if conns[i] == conn {
			// shift last connection into the freed slot
			conns[i] = conns[len(conns)-1]
			p.m[uid] = conns[:len(conns)-1]
			return
		}
	}
}
