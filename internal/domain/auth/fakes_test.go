package auth

import (
	"context"
	"sync"

	"github.com/mwork/authweb/internal/pkg/authclient"
	"github.com/mwork/authweb/internal/pkg/notify"
)

type fakeService struct {
	mu         sync.Mutex
	loginCalls []authclient.LoginRequest
	regCalls   []authclient.RegisterRequest
	loginResp  *authclient.MessageResponse
	loginErr   error
	regResp    *authclient.MessageResponse
	regErrs    []error // consumed one per Register call, then regErr
	regErr     error
	block      chan struct{}
	entered    chan struct{}
}

func (f *fakeService) Login(ctx context.Context, p authclient.LoginRequest) (*authclient.MessageResponse, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls = append(f.loginCalls, p)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeService) Register(ctx context.Context, p authclient.RegisterRequest) (*authclient.MessageResponse, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regCalls = append(f.regCalls, p)
	if len(f.regErrs) > 0 {
		err := f.regErrs[0]
		f.regErrs = f.regErrs[1:]
		if err != nil {
			return nil, err
		}
		return f.regResp, nil
	}
	if f.regErr != nil {
		return nil, f.regErr
	}
	return f.regResp, nil
}

func (f *fakeService) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeService) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loginCalls)
}

func (f *fakeService) registerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.regCalls)
}

type recordingNotifier struct {
	mu   sync.Mutex
	list []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	r.list = append(r.list, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.list))
	for _, n := range r.list {
		out = append(out, n.Message)
	}
	return out
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingNavigator) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recordingNavigator) visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.paths...)
}

func httpError(status int, message, body string) error {
	return &authclient.Error{Op: "test", Kind: authclient.KindHTTP, Status: status, Message: message, Body: []byte(body)}
}
