package unitofwork

import (
	"context"

	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/internal/repository/implementation"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RefundRepository() contract.RefundRepository
	ProductionRepository() contract.ProductionRepository
	Directory() *implementation.Directory
}
