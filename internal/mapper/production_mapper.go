package mapper

import (
	"refund-lifecycle-be/internal/dto"
	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/pkg/production"
)

type ProductionMapper struct{}

func NewProductionMapper() *ProductionMapper {
	return &ProductionMapper{}
}

func (m *ProductionMapper) ToCreateRequest(req *dto.CreateProductionItemRequest, actor string) production.CreateItemRequest {
	return production.CreateItemRequest{
		OrderRef:    req.OrderRef,
		ItemRef:     req.ItemRef,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		Actor:       actor,
	}
}

func (m *ProductionMapper) ToResponse(item *entity.ProductionItem) *dto.ProductionItemResponse {
	if item == nil {
		return nil
	}
	return &dto.ProductionItemResponse{
		Id:          item.ID,
		OrderRef:    item.OrderRef,
		ItemRef:     item.ItemRef,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Priority:    string(item.Priority),
		Status:      string(item.Status),
		AssignedTo:  item.AssignedTo,
		History:     LedgerToResponse(item.History),
		Version:     item.Version,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (m *ProductionMapper) ToColumns(columns []production.Column) []dto.ProductionColumnResponse {
	out := make([]dto.ProductionColumnResponse, 0, len(columns))
	for _, col := range columns {
		items := make([]dto.ProductionItemResponse, 0, len(col.Items))
		for _, item := range col.Items {
			items = append(items, *m.ToResponse(item))
		}
		out = append(out, dto.ProductionColumnResponse{Status: string(col.Status), Items: items})
	}
	return out
}
