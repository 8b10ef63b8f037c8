// Package services holds the notification publishing pipeline.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
)

const unknownSender = "Someone"

// Event is a domain action that should notify RecipientID
type Event struct {
	RecipientID uint
	SenderID    uint
	Kind        models.NotificationKind
	PostID      *string
	// Post, when known, is attached to the pushed view so it matches the pull API
	Post *models.PostSummary
	// Message overrides the text rendered from Kind and the sender's username
	Message string
}

// EventPublisher is what domain handlers call after committing a change
type EventPublisher interface {
	Publish(ctx context.Context, event Event) *models.Notification
}

// ProfileResolver reads sender display fields
type ProfileResolver interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type PublisherOptions struct {
	Workers   int
	QueueSize int
}

type dispatch struct {
	notificationID uint
	recipientID    uint
	sessions       []*realtime.Session
	frame          []byte
}

// Publisher persists notifications and pushes them to the recipient's live
// sessions. Pushes for one recipient always go through the same worker, so
// they arrive in creation order.
type Publisher struct {
	store    repositories.NotificationRepository
	profiles ProfileResolver
	registry *realtime.Registry
	log      *slog.Logger

	queues    []chan dispatch
	wg        sync.WaitGroup
	startOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(store repositories.NotificationRepository, profiles ProfileResolver, registry *realtime.Registry, log *slog.Logger, opts PublisherOptions) *Publisher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 256
	}
	queues := make([]chan dispatch, opts.Workers)
	for i := range queues {
		queues[i] = make(chan dispatch, opts.QueueSize)
	}
	return &Publisher{
		store:    store,
		profiles: profiles,
		registry: registry,
		log:      log,
		queues:   queues,
	}
}

// Start launches the dispatch workers. Calling it again has no effect.
func (p *Publisher) Start() {
	p.startOnce.Do(func() {
		for i, q := range p.queues {
			p.wg.Add(1)
			go p.worker(i, q)
		}
	})
}

// Close stops accepting pushes and waits for queued ones to be delivered
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.Start() // drain queues even if the workers never ran
	p.wg.Wait()
}

// Publish records the notification and schedules its push. It never fails the
// caller: errors are logged and a nil notification is returned.
// Self-actions produce nothing.
func (p *Publisher) Publish(ctx context.Context, event Event) *models.Notification {
	if event.SenderID == event.RecipientID {
		return nil
	}

	// The action already committed; a cancelled request must not lose or
	// mislabel the record
	bg := context.WithoutCancel(ctx)

	sender := p.resolveSender(bg, event.SenderID)
	message := event.Message
	if message == "" {
		message = event.Kind.Render(sender.Username)
	}

	notification := &models.Notification{
		RecipientID: event.RecipientID,
		SenderID:    event.SenderID,
		Kind:        event.Kind,
		PostID:      event.PostID,
		Message:     message,
	}
	if err := p.store.Record(bg, notification); err != nil {
		p.log.Error("failed to record notification",
			"recipient_id", event.RecipientID, "sender_id", event.SenderID, "kind", event.Kind, "error", err)
		return nil
	}

	// Sessions joining after this point read the notification through the pull API
	sessions := p.registry.SessionsFor(event.RecipientID)
	if len(sessions) == 0 {
		return notification
	}

	view := notification.ToView(sender)
	view.Post = event.Post
	frame, err := realtime.EncodeNotification(view)
	if err != nil {
		p.log.Error("failed to encode notification", "notification_id", notification.ID, "error", err)
		return notification
	}
	p.enqueue(dispatch{
		notificationID: notification.ID,
		recipientID:    event.RecipientID,
		sessions:       sessions,
		frame:          frame,
	})
	return notification
}

func (p *Publisher) resolveSender(ctx context.Context, senderID uint) models.UserCompact {
	if p.profiles == nil {
		return models.UserCompact{ID: senderID, Username: unknownSender}
	}
	user, err := p.profiles.GetUserByID(ctx, senderID)
	if err != nil {
		p.log.Warn("failed to resolve sender profile", "sender_id", senderID, "error", err)
		return models.UserCompact{ID: senderID, Username: unknownSender}
	}
	return user.ToCompact()
}

func (p *Publisher) enqueue(d dispatch) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("publisher closed, push skipped", "notification_id", d.notificationID)
		return
	}
	q := p.queues[int(d.recipientID%uint(len(p.queues)))]
	select {
	case q <- d:
	default:
		p.log.Warn("dispatch queue full, push dropped",
			"notification_id", d.notificationID, "recipient_id", d.recipientID)
	}
}

func (p *Publisher) worker(id int, q <-chan dispatch) {
	defer p.wg.Done()
	for d := range q {
		for _, s := range d.sessions {
			if err := s.Push(d.frame); err != nil {
				p.log.Warn("push failed",
					"worker", id, "notification_id", d.notificationID, "session_id", s.ID(), "error", err)
			}
		}
	}
}
