package repository

import (
	"context"
	"reflect"
)

// UnitOfWork runs a closure as one all-or-nothing group of repository calls
// and hands out repositories bound to it.
//
// Do commits when fn returns nil and rolls back every write made through the
// provided UnitOfWork otherwise, including limit reservations. Locks taken
// inside fn are held until Do returns. A conflict detected at commit time is
// returned as account.ErrVersionConflict.
//
// GetRepository resolves a repository by interface type:
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*AccountRepository)(nil)).Elem())
//	repo := repoAny.(AccountRepository)
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	GetRepository(repoType reflect.Type) (any, error)

	// Type-safe repository access methods (convenience methods)
	AccountRepository() (AccountRepository, error)
	DailyLimitRepository() (DailyLimitRepository, error)
	TransactionRepository() (TransactionRepository, error)
}

var (
	// AccountRepositoryType is the registry key of AccountRepository.
	AccountRepositoryType = reflect.TypeOf((*AccountRepository)(nil)).Elem()
	// DailyLimitRepositoryType is the registry key of DailyLimitRepository.
	DailyLimitRepositoryType = reflect.TypeOf((*DailyLimitRepository)(nil)).Elem()
	// TransactionRepositoryType is the registry key of TransactionRepository.
	TransactionRepositoryType = reflect.TypeOf((*TransactionRepository)(nil)).Elem()
)
