package bootstrap

import (
	"context"
	"fmt"

	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/internal/repository/boltstore"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/internal/repository/memory"
	"refund-lifecycle-be/internal/repository/unitofwork"
	"refund-lifecycle-be/pkg/database"
	"refund-lifecycle-be/pkg/refund"
)

// Directory answers the order and customer lookups intake depends on.
type Directory interface {
	refund.OrderLookup
	refund.CustomerLookup
	UpsertOrder(ctx context.Context, o refund.OrderInfo) error
	UpsertCustomer(ctx context.Context, c refund.CustomerInfo) error
}

type Stores struct {
	Refunds    contract.RefundRepository
	Production contract.ProductionRepository
	Directory  Directory
	Close      func() error
}

// OpenStores opens the backend selected by STORE_DRIVER.
func OpenStores(cfg *config.Config) (*Stores, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
		}
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			return nil, fmt.Errorf("unable to connect to GORM DB: %w", err)
		}
		uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(context.Background())
		return &Stores{
			Refunds:    uow.RefundRepository(),
			Production: uow.ProductionRepository(),
			Directory:  uow.Directory(),
			Close: func() error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case "bolt":
		db, err := boltstore.Open(cfg.Database.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("unable to open bolt store %s: %w", cfg.Database.BoltPath, err)
		}
		return &Stores{
			Refunds:    boltstore.NewRefundRepository(db),
			Production: boltstore.NewProductionRepository(db),
			Directory:  boltstore.NewDirectory(db),
			Close:      db.Close,
		}, nil

	case "memory":
		return &Stores{
			Refunds:    memory.NewRefundRepository(),
			Production: memory.NewProductionRepository(),
			Directory:  memory.NewDirectory(),
			Close:      func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q (use postgres, bolt or memory)", cfg.Database.Driver)
}
