package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProductionItemRequest struct {
	OrderRef    string `json:"orderRef" validate:"required"`
	ItemRef     string `json:"itemRef"`
	ProductName string `json:"productName" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	AssignedTo  string `json:"assignedTo"`
}

type AdvanceProductionRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

type ProductionItemResponse struct {
	Id          uuid.UUID             `json:"id"`
	OrderRef    string                `json:"orderRef"`
	ItemRef     string                `json:"itemRef"`
	ProductName string                `json:"productName"`
	Quantity    int                   `json:"quantity"`
	Priority    string                `json:"priority"`
	Status      string                `json:"status"`
	AssignedTo  *string               `json:"assignedTo"`
	History     []LedgerEntryResponse `json:"history"`
	Version     int64                 `json:"version"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

type ProductionColumnResponse struct {
	Status string                   `json:"status"`
	Items  []ProductionItemResponse `json:"items"`
}
