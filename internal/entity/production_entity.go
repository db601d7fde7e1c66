package entity

import (
	"time"

	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
)

// ProductionStatus is the board column of an order item being produced
type ProductionStatus string

const (
	ProductionStatusQueued       ProductionStatus = "queued"
	ProductionStatusInProduction ProductionStatus = "in_production"
	ProductionStatusQualityCheck ProductionStatus = "quality_check"
	ProductionStatusOnHold       ProductionStatus = "on_hold"
	ProductionStatusReadyToShip  ProductionStatus = "ready_to_ship"
	ProductionStatusShipped      ProductionStatus = "shipped"
	ProductionStatusCancelled    ProductionStatus = "cancelled"
)

var AllProductionStatuses = []ProductionStatus{
	ProductionStatusQueued,
	ProductionStatusInProduction,
	ProductionStatusQualityCheck,
	ProductionStatusOnHold,
	ProductionStatusReadyToShip,
	ProductionStatusShipped,
	ProductionStatusCancelled,
}

func ParseProductionStatus(s string) (ProductionStatus, bool) {
	for _, st := range AllProductionStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type ProductionPriority string

const (
	ProductionPriorityLow    ProductionPriority = "low"
	ProductionPriorityNormal ProductionPriority = "normal"
	ProductionPriorityHigh   ProductionPriority = "high"
	ProductionPriorityUrgent ProductionPriority = "urgent"
)

// Rank orders priorities, higher is more pressing. Unknown values rank as normal.
func (p ProductionPriority) Rank() int {
	switch p {
	case ProductionPriorityLow:
		return 0
	case ProductionPriorityHigh:
		return 2
	case ProductionPriorityUrgent:
		return 3
	default:
		return 1
	}
}

func ParseProductionPriority(s string) (ProductionPriority, bool) {
	switch ProductionPriority(s) {
	case ProductionPriorityLow, ProductionPriorityNormal, ProductionPriorityHigh, ProductionPriorityUrgent:
		return ProductionPriority(s), true
	}
	return "", false
}

type ProductionLedger = workflow.Ledger[ProductionStatus]

type ProductionItem struct {
	ID          uuid.UUID
	OrderRef    string
	ItemRef     string
	ProductName string
	Quantity    int
	Priority    ProductionPriority
	Status      ProductionStatus
	AssignedTo  *string
	History     ProductionLedger
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *ProductionItem) Clone() *ProductionItem {
	c := *p
	c.AssignedTo = cloneString(p.AssignedTo)
	c.History = p.History.Clone()
	return &c
}
