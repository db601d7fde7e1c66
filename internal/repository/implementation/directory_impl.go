package implementation

import (
	"context"
	"errors"

	"refund-lifecycle-be/internal/model"
	"refund-lifecycle-be/pkg/refund"

	"gorm.io/gorm"
)

// Directory answers order and customer lookups from the storefront tables.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) FindOrder(ctx context.Context, ref string) (*refund.OrderInfo, error) {
	var m model.Order
	if err := d.db.WithContext(ctx).Where("ref = ?", ref).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund.OrderInfo{
		Ref:                    m.Ref,
		Number:                 m.Number,
		CustomerRef:            m.CustomerRef,
		Amount:                 m.Amount,
		Currency:               m.Currency,
		PlacedAt:               m.PlacedAt,
		GatewayRef:             m.GatewayRef,
		OriginalTransactionRef: m.OriginalTransactionRef,
		DuplicateOf:            m.DuplicateOf,
	}, nil
}

func (d *Directory) FindCustomer(ctx context.Context, ref string) (*refund.CustomerInfo, error) {
	var m model.Customer
	if err := d.db.WithContext(ctx).Where("ref = ?", ref).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund.CustomerInfo{Ref: m.Ref, Name: m.Name, Email: m.Email, Flagged: m.Flagged}, nil
}

// UpsertOrder and UpsertCustomer seed the read models.
func (d *Directory) UpsertOrder(ctx context.Context, o refund.OrderInfo) error {
	return d.db.WithContext(ctx).Save(&model.Order{
		Ref:                    o.Ref,
		Number:                 o.Number,
		CustomerRef:            o.CustomerRef,
		Amount:                 o.Amount,
		Currency:               o.Currency,
		PlacedAt:               o.PlacedAt,
		GatewayRef:             o.GatewayRef,
		OriginalTransactionRef: o.OriginalTransactionRef,
		DuplicateOf:            o.DuplicateOf,
	}).Error
}

func (d *Directory) UpsertCustomer(ctx context.Context, c refund.CustomerInfo) error {
	return d.db.WithContext(ctx).Save(&model.Customer{Ref: c.Ref, Name: c.Name, Email: c.Email, Flagged: c.Flagged}).Error
}
