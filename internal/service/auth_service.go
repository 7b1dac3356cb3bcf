package service

import (
	"context"
	"errors"
	"fmt"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
	"garment-tracker/pkg/identity"
	"garment-tracker/pkg/logger"
)

var ErrIdentityMismatch = errors.New("email does not match the verified identity")

type IdentityVerifier interface {
	Verify(token string) (*identity.Identity, error)
}

// SessionResolver is the session gate as seen by the auth flow.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string, id identity.Identity) (*model.Account, error)
	CurrentAccount(sessionID string) (*model.Account, bool)
	Logout(sessionID string)
}

type AuthService interface {
	Register(ctx context.Context, token string, role model.Role) (*model.Account, error)
	// Login binds sessionID to the account of the identity in token. A federated
	// login with no account yet registers the identity as a pending buyer first.
	Login(ctx context.Context, sessionID, token string, req *LoginRequest) (*LoginResponse, error)
	Logout(sessionID string)
	Me(sessionID string) (*LoginResponse, error)
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Federated bool   `json:"federated"`
}

type LoginResponse struct {
	Account      model.AccountResponse `json:"account"`
	Capabilities []string              `json:"capabilities"`
}

type authService struct {
	verifier IdentityVerifier
	sessions SessionResolver
	accounts AccountService
	log      logger.Logger
}

func NewAuthService(verifier IdentityVerifier, sessions SessionResolver, accounts AccountService, log logger.Logger) AuthService {
	return &authService{
		verifier: verifier,
		sessions: sessions,
		accounts: accounts,
		log:      log,
	}
}

func (s *authService) verify(token string) (*identity.Identity, error) {
	id, err := s.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNoSession, err)
	}
	return id, nil
}

func (s *authService) Register(ctx context.Context, token string, role model.Role) (*model.Account, error) {
	id, err := s.verify(token)
	if err != nil {
		return nil, err
	}
	return s.accounts.Register(ctx, *id, role)
}

func (s *authService) Login(ctx context.Context, sessionID, token string, req *LoginRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	id, err := s.verify(token)
	if err != nil {
		return nil, err
	}
	if identity.NormalizeEmail(req.Email) != identity.NormalizeEmail(id.Email) {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNoSession, ErrIdentityMismatch)
	}

	account, err := s.sessions.ResolveSession(ctx, sessionID, *id)
	if errors.Is(err, apperror.ErrAccountNotFound) && req.Federated {
		if _, err = s.accounts.Register(ctx, *id, model.RoleBuyer); err != nil {
			return nil, err
		}
		account, err = s.sessions.ResolveSession(ctx, sessionID, *id)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("session started",
		logger.String("account_id", account.ID.String()),
		logger.String("status", string(account.Status)))
	return newLoginResponse(account), nil
}

func (s *authService) Logout(sessionID string) {
	s.sessions.Logout(sessionID)
}

func (s *authService) Me(sessionID string) (*LoginResponse, error) {
	account, ok := s.sessions.CurrentAccount(sessionID)
	if !ok {
		return nil, apperror.ErrNoSession
	}
	return newLoginResponse(account), nil
}

func newLoginResponse(a *model.Account) *LoginResponse {
	return &LoginResponse{
		Account:      a.ToResponse(),
		Capabilities: policy.Allowed(a),
	}
}
