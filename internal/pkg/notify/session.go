package notify

import (
	"context"

	"github.com/mwork/authweb/internal/pkg/logger"
)

// Publisher pushes a notification to live clients of a session.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, n Notification) error
}

// SessionNotifier records notifications as flashes of one browser session and pushes them
// to its open sockets. Failures are logged and swallowed.
type SessionNotifier struct {
	sessionID string
	store     FlashStore
	publisher Publisher
}

// ForSession binds store and publisher (either may be nil) to sessionID.
func ForSession(sessionID string, store FlashStore, publisher Publisher) *SessionNotifier {
	return &SessionNotifier{sessionID: sessionID, store: store, publisher: publisher}
}

func (s *SessionNotifier) Notify(ctx context.Context, n Notification) {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}

	l := logger.FromContext(ctx)
	if s.store != nil {
		if err := s.store.Put(ctx, s.sessionID, n); err != nil {
			l.Error().Err(err).Str("session_id", s.sessionID).Msg("Failed to store flash notification")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, s.sessionID, n); err != nil {
			l.Warn().Err(err).Str("session_id", s.sessionID).Msg("Failed to publish notification")
		}
	}
}
