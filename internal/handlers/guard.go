package handlers

import "sync"

// submitGuard admits one authentication submission per client at a time.
type submitGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newSubmitGuard() *submitGuard {
	return &submitGuard{inFlight: make(map[string]struct{})}
}

// acquire claims the slot of key. The returned release must be called once the
// submission settled, whatever its outcome.
func (g *submitGuard) acquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return nil, false
	}
	g.inFlight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, true
}
