// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package live

import "sync"

// Peer is one open connection as seen by the broadcaster.
type Peer interface {
	// Send queues frame without blocking. It returns false when the frame
	// was dropped because the peer is closed or too far behind.
	Send(frame []byte) bool
}

// Identity is who a client announced itself as.
type Identity struct {
	UserID   string
	UserName string
}

// Registry maps open connections to the identity registered on them.
//
// Only the transport's accept and close paths mutate it; the broadcaster
// reads snapshots. Every connection appears at most once.
type Registry struct {
	mu    sync.RWMutex
	peers map[Peer]*Identity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[Peer]*Identity)}
}

// Open adds an anonymous connection. It already receives broadcasts.
func (registry *Registry) Open(peer Peer) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.peers[peer]; !ok {
		registry.peers[peer] = nil
	}
}

// Register attaches an identity to peer, adding peer if needed. A repeated
// registration replaces the previous identity.
func (registry *Registry) Register(peer Peer, userID, userName string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.peers[peer] = &Identity{UserID: userID, UserName: userName}
}

// Unregister forgets peer and returns the identity it carried, if any.
func (registry *Registry) Unregister(peer Peer) (Identity, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	identity, ok := registry.peers[peer]
	delete(registry.peers, peer)
	if !ok || identity == nil {
		return Identity{}, false
	}
	return *identity, true
}

// Identity returns the identity registered on peer.
func (registry *Registry) Identity(peer Peer) (Identity, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	identity := registry.peers[peer]
	if identity == nil {
		return Identity{}, false
	}
	return *identity, true
}

// Snapshot copies the open connections. The copy may include a peer that
// closes a moment later; sending to it is harmless.
func (registry *Registry) Snapshot() []Peer {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	peers := make([]Peer, 0, len(registry.peers))
	for peer := range registry.peers {
		peers = append(peers, peer)
	}
	return peers
}

// Len returns the number of open connections.
func (registry *Registry) Len() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.peers)
}
