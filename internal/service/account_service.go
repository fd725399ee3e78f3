package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/model"
	"github.com/shinyyama/marketplace-core/internal/repository"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

// AccountService turns an authenticated uid into a Caller. The tier is read
// from storage on every call and never cached.
type AccountService interface {
	Resolve(ctx context.Context, uid string) (verification.Caller, error)
	Upsert(ctx context.Context, uid, displayName string, tier verification.Tier) (*model.Account, error)
}

type accountService struct {
	repo repository.AccountRepository
}

func NewAccountService(repo repository.AccountRepository) AccountService {
	return &accountService{repo: repo}
}

// Resolve returns an unverified caller for unknown accounts.
func (s *accountService) Resolve(ctx context.Context, uid string) (verification.Caller, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return verification.Caller{}, ledger.ErrUnauthorized
	}
	acc, err := s.repo.FindByID(ctx, uid)
	if errors.Is(err, ledger.ErrNotFound) {
		return verification.Caller{UserID: uid, Tier: verification.TierUnverified}, nil
	}
	if err != nil {
		return verification.Caller{}, fmt.Errorf("%w: %v", ledger.ErrStorageFailure, err)
	}
	return verification.Caller{UserID: uid, Tier: verification.ParseTier(acc.Tier)}, nil
}

func (s *accountService) Upsert(ctx context.Context, uid, displayName string, tier verification.Tier) (*model.Account, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("uid is required")
	}
	acc := &model.Account{
		ID:          uid,
		DisplayName: strings.TrimSpace(displayName),
		Tier:        string(verification.ParseTier(string(tier))),
	}
	if err := s.repo.Upsert(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}
