package memory

import (
	"context"
	"sync"

	"refund-lifecycle-be/pkg/refund"
)

// Directory is an in-memory order and customer lookup for tests and the memory driver.
type Directory struct {
	mu        sync.RWMutex
	orders    map[string]refund.OrderInfo
	customers map[string]refund.CustomerInfo
}

func NewDirectory() *Directory {
	return &Directory{
		orders:    make(map[string]refund.OrderInfo),
		customers: make(map[string]refund.CustomerInfo),
	}
}

func (d *Directory) UpsertOrder(_ context.Context, o refund.OrderInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders[o.Ref] = o
	return nil
}

func (d *Directory) UpsertCustomer(_ context.Context, c refund.CustomerInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[c.Ref] = c
	return nil
}

func (d *Directory) FindOrder(_ context.Context, ref string) (*refund.OrderInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if o, ok := d.orders[ref]; ok {
		return &o, nil
	}
	return nil, nil
}

func (d *Directory) FindCustomer(_ context.Context, ref string) (*refund.CustomerInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if c, ok := d.customers[ref]; ok {
		return &c, nil
	}
	return nil, nil
}
