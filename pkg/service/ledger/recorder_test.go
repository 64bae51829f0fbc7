package ledger

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

// lockRecorder wraps a UnitOfWork and records every Lock call in order.
type lockRecorder struct {
	repository.UnitOfWork

	mu    sync.Mutex
	locks []string
}

func (r *lockRecorder) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return r.UnitOfWork.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(&recordingUnit{UnitOfWork: inner, rec: r})
	})
}

func (r *lockRecorder) record(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, key)
}

func (r *lockRecorder) Locks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.locks...)
}

func (r *lockRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = nil
}

type recordingUnit struct {
	repository.UnitOfWork
	rec *lockRecorder
}

func (u *recordingUnit) GetRepository(t reflect.Type) (any, error) {
	switch t {
	case repository.AccountRepositoryType:
		return u.AccountRepository()
	case repository.DailyLimitRepositoryType:
		return u.DailyLimitRepository()
	}
	return u.UnitOfWork.GetRepository(t)
}

func (u *recordingUnit) AccountRepository() (repository.AccountRepository, error) {
	repo, err := u.UnitOfWork.AccountRepository()
	if err != nil {
		return nil, err
	}
	return &recordingAccounts{AccountRepository: repo, rec: u.rec}, nil
}

func (u *recordingUnit) DailyLimitRepository() (repository.DailyLimitRepository, error) {
	repo, err := u.UnitOfWork.DailyLimitRepository()
	if err != nil {
		return nil, err
	}
	return &recordingLimits{DailyLimitRepository: repo, rec: u.rec}, nil
}

type recordingAccounts struct {
	repository.AccountRepository
	rec *lockRecorder
}

func (r *recordingAccounts) Lock(ctx context.Context, id int64) (*account.Account, error) {
	r.rec.record(fmt.Sprintf("account:%d", id))
	return r.AccountRepository.Lock(ctx, id)
}

type recordingLimits struct {
	repository.DailyLimitRepository
	rec *lockRecorder
}

func (r *recordingLimits) Lock(ctx context.Context, accountID int64, day string) (*account.DailyLimit, error) {
	r.rec.record(fmt.Sprintf("limit:%d", accountID))
	return r.DailyLimitRepository.Lock(ctx, accountID, day)
}
