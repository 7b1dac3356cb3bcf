package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/events"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
	"garment-tracker/internal/repository"
	"garment-tracker/pkg/identity"
	"garment-tracker/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type UpdateStatusRequest struct {
	Status        model.AccountStatus `json:"status" validate:"required,oneof=approved suspended"`
	SuspendReason string              `json:"suspendReason"`
}

type AccountService interface {
	// Register provisions a pending account for id. Registering an identity
	// that already has an account returns that account unchanged.
	Register(ctx context.Context, id identity.Identity, role model.Role) (*model.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	List(ctx context.Context, actor *model.Account, filter repository.AccountFilter) ([]model.AccountResponse, error)
	UpdateStatus(ctx context.Context, actor *model.Account, id uuid.UUID, req *UpdateStatusRequest) (*model.Account, error)
}

type accountService struct {
	repo      repository.AccountRepository
	observer  AccountObserver
	publisher events.Publisher
	log       logger.Logger
	inflight  singleflight.Group
}

func NewAccountService(repo repository.AccountRepository, observer AccountObserver, publisher events.Publisher, log logger.Logger) AccountService {
	return &accountService{
		repo:      repo,
		observer:  observer,
		publisher: publisher,
		log:       log,
	}
}

func (s *accountService) Register(ctx context.Context, id identity.Identity, role model.Role) (*model.Account, error) {
	if !role.SelfRegistrable() {
		return nil, apperror.Invalid("role %q cannot be requested at registration", role)
	}
	email := identity.NormalizeEmail(id.Email)
	if email == "" {
		return nil, apperror.Invalid("identity has no email")
	}

	type result struct {
		account *model.Account
		created bool
	}
	v, err, _ := s.inflight.Do(email, func() (interface{}, error) {
		existing, err := s.repo.FindByEmail(ctx, email)
		if err == nil {
			return result{account: existing}, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}

		account := &model.Account{
			Email:       email,
			DisplayName: id.DisplayName,
			PhotoURL:    id.PhotoURL,
			Role:        role,
			Status:      model.AccountPending,
		}
		account.CreatedBy = email
		account.UpdatedBy = email
		if err := s.repo.Create(ctx, account); err != nil {
			if !errors.Is(err, apperror.ErrAlreadyExists) {
				return nil, err
			}
			// lost the race to another instance
			existing, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return result{account: existing}, nil
		}
		return result{account: account, created: true}, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(result)
	if res.created {
		s.log.Info("account registered",
			logger.String("account_id", res.account.ID.String()),
			logger.String("role", string(role)))
		ev := events.New(events.AccountRegistered, res.account.ID, actorOf(res.account),
			fmt.Sprintf("%s registered as %s", email, role))
		ev.Status = string(res.account.Status)
		publish(ctx, s.publisher, s.log, ev)
	}
	return res.account.Clone(), nil
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *accountService) List(ctx context.Context, actor *model.Account, filter repository.AccountFilter) ([]model.AccountResponse, error) {
	if err := policy.Check(actor, policy.UserView).Err(); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Invalid("unknown account status %q", filter.Status)
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperror.Invalid("unknown role %q", filter.Role)
	}

	accounts, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]model.AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = accounts[i].ToResponse()
	}
	return responses, nil
}

func (s *accountService) UpdateStatus(ctx context.Context, actor *model.Account, id uuid.UUID, req *UpdateStatusRequest) (*model.Account, error) {
	if err := policy.Check(actor, policy.UserUpdateStatus).Err(); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.SuspendReason)
	if req.Status == model.AccountSuspended && reason == "" {
		return nil, apperror.Invalid("a reason is required to suspend an account")
	}

	var previous model.AccountStatus
	updated, err := s.repo.Update(ctx, id, func(a *model.Account) error {
		if !a.Status.CanTransitionTo(req.Status) {
			return fmt.Errorf("%w: %s to %s", apperror.ErrInvalidAccountTransition, a.Status, req.Status)
		}
		previous = a.Status
		a.Status = req.Status
		a.SuspendReason = ""
		if req.Status == model.AccountSuspended {
			a.SuspendReason = reason
		}
		a.UpdatedBy = auditID(actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observer.AccountChanged(updated)
	s.log.Info("account status changed",
		logger.String("account_id", updated.ID.String()),
		logger.String("from", string(previous)),
		logger.String("to", string(updated.Status)),
		logger.String("by", auditID(actor)))

	ev := events.New(events.AccountStatusChanged, updated.ID, actorOf(actor),
		fmt.Sprintf("%s changed %s from %s to %s", actorOf(actor).Name, updated.Email, previous, updated.Status))
	ev.Status = string(updated.Status)
	ev.Data = updated.ToResponse()
	publish(ctx, s.publisher, s.log, ev)
	return updated, nil
}
