/*
Package chat contains the realtime core of the server.

This file defines the Registry, the in-memory map from user id to live
connection. It is the sole source of truth for who is online. Entries exist
only for the lifetime of the process; a restart starts empty.
*/
package chat

import "sync"

// Registry maps a user id to its single live connection. At most one entry
// exists per user id; registering again replaces the previous connection.
type Registry struct {
	// mu protects conns. It is held only for map access, never across a
	// network push.
	mu sync.RWMutex

	conns map[string]*Client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
	}
}

// Register stores client under userID, unconditionally replacing any prior
// connection for that user. The replaced client is returned so the caller can
// decide its fate; the registry itself does not close it.
func (r *Registry) Register(userID string, client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.conns[userID]
	if replaced == client {
		replaced = nil
	}
	r.conns[userID] = client

	return replaced
}

// Unregister removes the entry for userID only when the stored connection is
// the same instance the caller is deregistering. A disconnect callback from a
// connection that has already been replaced must not evict its successor.
// It reports whether an entry was actually removed.
func (r *Registry) Unregister(userID string, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[userID]
	if !ok || current != client {
		return false
	}

	delete(r.conns, userID)
	return true
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.conns[userID]
	return client, ok
}

// SnapshotUserIDs returns the current set of online user ids. The slice is
// computed fresh on every call; it is never cached.
func (r *Registry) SnapshotUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// snapshotClients returns the current connections. Callers push to them after
// the lock is released.
func (r *Registry) snapshotClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
