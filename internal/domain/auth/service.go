package auth

import (
	"context"
	"time"

	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/metrics"
)

// instrumentedService records auth service call durations.
type instrumentedService struct {
	next Service
}

// Instrument wraps svc with call metrics.
func Instrument(svc Service) Service {
	return &instrumentedService{next: svc}
}

func (s *instrumentedService) Login(ctx context.Context, p authclient.LoginRequest) (*authclient.MessageResponse, error) {
	defer metrics.ObserveAuthCall("login", time.Now())
	return s.next.Login(ctx, p)
}

func (s *instrumentedService) Register(ctx context.Context, p authclient.RegisterRequest) (*authclient.MessageResponse, error) {
	defer metrics.ObserveAuthCall("register", time.Now())
	return s.next.Register(ctx, p)
}
