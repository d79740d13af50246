package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Authenticate != nil && s.deps.Info.Verify != nil
}

func (s Service) Login(ctx context.Context, username, password string) (*Result, error) {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) Info(ctx context.Context, token string) (*Result, error) {
	return RunInfo(ctx, token, s.deps.Info)
}

func (s Service) Renew(ctx context.Context, token string) (*Result, error) {
	return RunRenew(ctx, token, s.deps.Renew)
}

func (s Service) Logout(ctx context.Context, token string) (*Result, error) {
	return RunLogout(ctx, token, s.deps.Logout)
}
