package roles

import "sync"

//guildLocks hands out one mutex per guild. Every registry mutation holds its
//guild's lock for the duration of the operation so the priority renumbering
//invariant stays correct under concurrent edits; read paths never take it.
type guildLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGuildLocks() *guildLocks {
	return &guildLocks{locks: make(map[string]*sync.Mutex)}
}

//lock acquires the mutex for guildID, creating it on first use, and returns
//the matching unlock.
func (l *guildLocks) lock(guildID string) func() {
	l.mu.Lock()
	m, ok := l.locks[guildID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[guildID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
