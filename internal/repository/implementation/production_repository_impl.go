package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/model"
	"refund-lifecycle-be/internal/repository/contract"
	"refund-lifecycle-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type productionRepositoryImpl struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) contract.ProductionRepository {
	return &productionRepositoryImpl{db: db}
}

func (r *productionRepositoryImpl) Create(ctx context.Context, item *entity.ProductionItem) error {
	m, err := toProductionModel(item)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *productionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.ProductionItem, error) {
	var m model.ProductionItem
	err := r.db.WithContext(ctx).
		Scopes(specification.ByID{ID: id}.Apply).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toProductionEntity(&m)
}

func (r *productionRepositoryImpl) FindAll(ctx context.Context, f contract.ProductionFilter) ([]*entity.ProductionItem, error) {
	specs := []specification.Specification{
		specification.OrderBy{Field: "priority_rank", Desc: true},
		specification.OrderBy{Field: "created_at"},
	}
	if len(f.Statuses) > 0 {
		specs = append(specs, specification.ByProductionStatuses{Statuses: f.Statuses})
	}
	if f.OrderRef != "" {
		specs = append(specs, specification.Filter("order_ref", f.OrderRef))
	}

	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.ProductionItem
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]*entity.ProductionItem, 0, len(models))
	for _, m := range models {
		item, err := toProductionEntity(m)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *productionRepositoryImpl) Save(ctx context.Context, item *entity.ProductionItem, expectedVersion int64) error {
	m, err := toProductionModel(item)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&model.ProductionItem{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        m.Status,
			"priority":      m.Priority,
			"priority_rank": m.PriorityRank,
			"assigned_to":   m.AssignedTo,
			"history":       m.History,
			"version":       expectedVersion + 1,
			"updated_at":    m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	return nil
}

func toProductionModel(e *entity.ProductionItem) (*model.ProductionItem, error) {
	history, err := json.Marshal(e.History)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return &model.ProductionItem{
		ID:           e.ID,
		OrderRef:     e.OrderRef,
		ItemRef:      e.ItemRef,
		ProductName:  e.ProductName,
		Quantity:     e.Quantity,
		Priority:     string(e.Priority),
		PriorityRank: e.Priority.Rank(),
		Status:       string(e.Status),
		AssignedTo:   e.AssignedTo,
		History:      datatypes.JSON(history),
		Version:      e.Version,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}, nil
}

func toProductionEntity(m *model.ProductionItem) (*entity.ProductionItem, error) {
	e := &entity.ProductionItem{
		ID:          m.ID,
		OrderRef:    m.OrderRef,
		ItemRef:     m.ItemRef,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		Priority:    entity.ProductionPriority(m.Priority),
		Status:      entity.ProductionStatus(m.Status),
		AssignedTo:  m.AssignedTo,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.History) > 0 {
		if err := json.Unmarshal(m.History, &e.History); err != nil {
			return nil, fmt.Errorf("failed to decode history of item %s: %w", m.ID, err)
		}
	}
	return e, nil
}
