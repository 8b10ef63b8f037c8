// Package client is a Go SDK for the notification API: pull requests over
// HTTP, live pushes over websocket and a local inbox kept in step with both.
package client

import (
	"sync"

	"github.com/anonto42/socialpulse/backend/internal/models"
)

// Inbox is the client-side view of a user's notifications and unread counter.
// The server stays authoritative: Load and Reconcile replace local state.
type Inbox struct {
	mu     sync.Mutex
	items  []models.NotificationView
	unread int64
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Load replaces the buffer with a freshly pulled page and adopts the server count
func (b *Inbox) Load(items []models.NotificationView, unread int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]models.NotificationView(nil), items...)
	b.unread = max(unread, 0)
}

// Receive prepends a pushed notification. A notification already in the
// buffer (seen through a pull after reconnect) is ignored.
func (b *Inbox) Receive(view models.NotificationView) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range b.items {
		if item.ID == view.ID {
			return false
		}
	}
	b.items = append([]models.NotificationView{view}, b.items...)
	if !view.IsRead {
		b.unread++
	}
	return true
}

// MarkRead flips the local flag. The counter drops by one unless the item is
// known to be read already, and never goes below zero.
func (b *Inbox) MarkRead(id uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		if b.items[i].IsRead {
			return
		}
		b.items[i].IsRead = true
		break
	}
	b.unread = max(b.unread-1, 0)
}

func (b *Inbox) MarkAllRead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		b.items[i].IsRead = true
	}
	b.unread = 0
}

// Reconcile adopts a server recount
func (b *Inbox) Reconcile(unread int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread = max(unread, 0)
}

// Items returns a copy of the buffer, newest first
func (b *Inbox) Items() []models.NotificationView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.NotificationView(nil), b.items...)
}

func (b *Inbox) Unread() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}
