package cache

import "sync"

// Session holds the HNAP credentials issued by a modem at login.
type Session struct {
	UID        string
	PrivateKey string
}

// Sessions keeps one Session per modem address.
type Sessions struct {
	values map[string]Session
	mutex  sync.RWMutex
}

func New() *Sessions {
	return &Sessions{
		values: map[string]Session{},
	}
}

func (c *Sessions) Get(address string) (Session, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	value, ok := c.values[address]
	return value, ok
}

func (c *Sessions) Set(address string, session Session) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.values[address] = session
}

func (c *Sessions) Remove(address string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.values, address)
}
