package deletion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/keepjoy/account-service/internal/identity"
	"github.com/keepjoy/account-service/internal/server"
)

// Service runs the deletion pipeline. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	verifier identity.Verifier
	deleter  identity.Deleter
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures the Service.
type Option func(s *Service)

// WithLogger sets the logger used for audit and failure records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService wires the token verifier and the privileged deleter.
func NewService(verifier identity.Verifier, deleter identity.Deleter, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("deletion: verifier is required")
	}
	if deleter == nil {
		return nil, errors.New("deletion: deleter is required")
	}
	s := &Service{verifier: verifier, deleter: deleter}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// Delete authenticates the caller from the Authorization header value, checks that the
// verified principal owns req.UserID and only then removes the account.
func (s *Service) Delete(ctx context.Context, authorization string, req Request) Result {
	res := s.run(ctx, authorization, req)
	s.metrics.observeOutcome(res.Kind)
	return res
}

func (s *Service) run(ctx context.Context, authorization string, req Request) Result {
	if req.UserID == "" {
		return failed(KindValidation, MsgUserIDRequired, "", nil)
	}

	token, err := identity.ParseBearer(authorization)
	if errors.Is(err, identity.ErrMissingAuthorization) {
		return failed(KindAuthentication, MsgMissingAuthHeader, "", err)
	}
	if err != nil {
		return failed(KindAuthentication, MsgInvalidToken, "", err)
	}

	start := time.Now()
	principal, err := s.verifier.VerifyToken(ctx, token)
	s.metrics.observeCall("verify_token", start, err)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return failed(KindAuthentication, MsgInvalidToken, "", err)
		}
		s.logger.Error("token verification failed", "error", err, "request_id", server.RequestIDFromContext(ctx))
		return failed(KindInternal, MsgInternal, DetailIdentityUnavail, err)
	}
	if principal == nil || principal.ID == "" {
		return failed(KindAuthentication, MsgInvalidToken, "", errors.New("deletion: verifier returned no principal"))
	}

	// Only the server-verified principal decides ownership.
	if principal.ID != req.UserID {
		s.logger.Warn("cross-account deletion refused",
			"principal_id", principal.ID,
			"user_id", req.UserID,
			"request_id", server.RequestIDFromContext(ctx),
		)
		return failed(KindAuthorization, MsgCrossAccount, "", nil)
	}

	logger := s.logger.With("user_id", req.UserID, "request_id", server.RequestIDFromContext(ctx))
	logger.Info("deleting user account")

	start = time.Now()
	err = s.deleter.DeleteUser(ctx, req.UserID)
	s.metrics.observeCall("delete_user", start, err)
	if err != nil {
		var rejected *identity.RejectedError
		if errors.As(err, &rejected) {
			logger.Error("identity store refused deletion", "error", err)
			return failed(KindDeletion, MsgDeleteFailed, rejected.Detail, err)
		}
		logger.Error("deletion call failed", "error", err)
		return failed(KindInternal, MsgInternal, DetailIdentityUnavail, err)
	}

	logger.Info("deleted user account")
	return succeeded()
}
