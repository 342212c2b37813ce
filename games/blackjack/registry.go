package blackjack

import "sync"

// chatState carries a chat's session together with the lock that
// serializes every operation touching that chat, including its ledger
// entries. The state persists after the session is removed so the same
// lock keeps protecting the chat.
type chatState struct {
	mu      sync.Mutex
	session *Session
}

// Registry owns the chat → session mapping. It is constructed once and
// injected; there are no package-level game maps. Operations on distinct
// chats never contend with each other; only the brief bucket lookup is
// shared.
type Registry struct {
	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]*chatState)}
}

// state returns the chat's bucket, creating it on first sight.
func (r *Registry) state(chatID int64) *chatState {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.chats[chatID]
	if !ok {
		cs = &chatState{}
		r.chats[chatID] = cs
	}
	return cs
}

// withChat runs fn inside the chat's exclusive critical section.
func (r *Registry) withChat(chatID int64, fn func(cs *chatState) error) error {
	cs := r.state(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return fn(cs)
}
