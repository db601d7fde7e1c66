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
	"refund-lifecycle-be/pkg/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type refundRepositoryImpl struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) contract.RefundRepository {
	return &refundRepositoryImpl{db: db}
}

func (r *refundRepositoryImpl) Create(ctx context.Context, refund *entity.Refund) error {
	m, err := toRefundModel(refund)
	if err != nil {
		return err
	}
	m.Ledger = toLedgerModels(refund.ID, refund.Ledger, 0)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Refund{}).Where("id = ?", refund.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return contract.ErrDuplicateID
		}
		return tx.Create(m).Error
	})
}

func (r *refundRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Refund, error) {
	var m model.Refund
	err := r.db.WithContext(ctx).
		Preload("Ledger", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Scopes(specification.ByID{ID: id}.Apply).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toRefundEntity(&m)
}

func (r *refundRepositoryImpl) query(ctx context.Context, f contract.RefundFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Refund{})
	for _, spec := range specification.RefundFilterSpecs(f) {
		query = spec.Apply(query)
	}
	return query
}

func (r *refundRepositoryImpl) FindAll(ctx context.Context, f contract.RefundFilter) ([]*entity.Refund, error) {
	var models []*model.Refund
	query := r.query(ctx, f).
		Preload("Ledger", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
	query = specification.OrderBy{Field: "requested_at", Desc: true}.Apply(query)
	query = specification.OrderBy{Field: "id", Desc: true}.Apply(query)
	if f.Limit > 0 || f.Offset > 0 {
		query = specification.Pagination{Limit: f.Limit, Offset: f.Offset}.Apply(query)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	refunds := make([]*entity.Refund, 0, len(models))
	for _, m := range models {
		e, err := toRefundEntity(m)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, e)
	}
	return refunds, nil
}

func (r *refundRepositoryImpl) Count(ctx context.Context, f contract.RefundFilter) (int64, error) {
	var n int64
	err := r.query(ctx, f).Count(&n).Error
	return n, err
}

// Save updates the row guarded by its version and appends only ledger entries the
// store has not seen yet, in one transaction.
func (r *refundRepositoryImpl) Save(ctx context.Context, refund *entity.Refund, expectedVersion int64) error {
	m, err := toRefundModel(refund)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Refund{}).
			Where("id = ? AND version = ?", refund.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":                   m.Status,
				"refund_amount":            m.RefundAmount,
				"processed_at":             m.ProcessedAt,
				"completed_at":             m.CompletedAt,
				"processed_by":             m.ProcessedBy,
				"approved_by":              m.ApprovedBy,
				"gateway_ref":              m.GatewayRef,
				"original_transaction_ref": m.OriginalTransactionRef,
				"refund_transaction_ref":   m.RefundTransactionRef,
				"notes":                    m.Notes,
				"customer_notes":           m.CustomerNotes,
				"attachments":              m.Attachments,
				"automation":               m.Automation,
				"retry_count":              m.RetryCount,
				"next_retry_at":            m.NextRetryAt,
				"last_failure_retryable":   m.LastFailureRetryable,
				"attempt_seq":              m.AttemptSeq,
				"version":                  expectedVersion + 1,
				"updated_at":               m.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return contract.ErrVersionConflict
		}

		var stored int64
		if err := tx.Model(&model.RefundLedgerEntry{}).Where("refund_id = ?", refund.ID).Count(&stored).Error; err != nil {
			return err
		}
		if int(stored) > len(refund.Ledger) {
			return fmt.Errorf("ledger of refund %s would shrink from %d to %d entries", refund.ID, stored, len(refund.Ledger))
		}
		fresh := toLedgerModels(refund.ID, refund.Ledger[stored:], int(stored))
		if len(fresh) == 0 {
			return nil
		}
		return tx.Create(&fresh).Error
	})
	if err != nil {
		return err
	}
	refund.Version = expectedVersion + 1
	return nil
}

func toRefundModel(e *entity.Refund) (*model.Refund, error) {
	attachments, err := json.Marshal(e.Attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	automation, err := json.Marshal(e.Automation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode automation: %w", err)
	}
	return &model.Refund{
		ID:                     e.ID,
		OrderRef:               e.OrderRef,
		CustomerRef:            e.CustomerRef,
		OrderNumber:            e.OrderNumber,
		CustomerName:           e.CustomerName,
		CustomerEmail:          e.CustomerEmail,
		OriginalAmount:         e.OriginalAmount,
		RefundAmount:           e.RefundAmount,
		Currency:               e.Currency,
		Reason:                 string(e.Reason),
		Type:                   string(e.Type),
		Method:                 string(e.Method),
		Status:                 string(e.Status),
		RequestedAt:            e.RequestedAt,
		ProcessedAt:            e.ProcessedAt,
		CompletedAt:            e.CompletedAt,
		ProcessedBy:            e.ProcessedBy,
		ApprovedBy:             e.ApprovedBy,
		GatewayRef:             e.GatewayRef,
		OriginalTransactionRef: e.OriginalTransactionRef,
		RefundTransactionRef:   e.RefundTransactionRef,
		Notes:                  e.Notes,
		CustomerNotes:          e.CustomerNotes,
		Attachments:            datatypes.JSON(attachments),
		Automation:             datatypes.JSON(automation),
		RetryCount:             e.RetryCount,
		NextRetryAt:            e.NextRetryAt,
		LastFailureRetryable:   e.LastFailureRetryable,
		AttemptSeq:             e.AttemptSeq,
		Version:                e.Version,
		UpdatedAt:              e.UpdatedAt,
	}, nil
}

func toLedgerModels(id uuid.UUID, ledger entity.RefundLedger, offset int) []model.RefundLedgerEntry {
	rows := make([]model.RefundLedgerEntry, 0, len(ledger))
	for i, e := range ledger {
		rows = append(rows, model.RefundLedgerEntry{
			RefundID:    id,
			Seq:         offset + i,
			Status:      string(e.Status),
			Kind:        string(e.Kind),
			Timestamp:   e.Timestamp,
			Description: e.Description,
			Actor:       e.Actor,
		})
	}
	return rows
}

func toRefundEntity(m *model.Refund) (*entity.Refund, error) {
	e := &entity.Refund{
		ID:                     m.ID,
		OrderRef:               m.OrderRef,
		CustomerRef:            m.CustomerRef,
		OrderNumber:            m.OrderNumber,
		CustomerName:           m.CustomerName,
		CustomerEmail:          m.CustomerEmail,
		OriginalAmount:         m.OriginalAmount,
		RefundAmount:           m.RefundAmount,
		Currency:               m.Currency,
		Reason:                 entity.RefundReason(m.Reason),
		Type:                   entity.RefundType(m.Type),
		Method:                 entity.RefundMethod(m.Method),
		Status:                 entity.RefundStatus(m.Status),
		RequestedAt:            m.RequestedAt,
		ProcessedAt:            m.ProcessedAt,
		CompletedAt:            m.CompletedAt,
		ProcessedBy:            m.ProcessedBy,
		ApprovedBy:             m.ApprovedBy,
		GatewayRef:             m.GatewayRef,
		OriginalTransactionRef: m.OriginalTransactionRef,
		RefundTransactionRef:   m.RefundTransactionRef,
		Notes:                  m.Notes,
		CustomerNotes:          m.CustomerNotes,
		RetryCount:             m.RetryCount,
		NextRetryAt:            m.NextRetryAt,
		LastFailureRetryable:   m.LastFailureRetryable,
		AttemptSeq:             m.AttemptSeq,
		Version:                m.Version,
		UpdatedAt:              m.UpdatedAt,
	}
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &e.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments of refund %s: %w", m.ID, err)
		}
	}
	if len(m.Automation) > 0 {
		if err := json.Unmarshal(m.Automation, &e.Automation); err != nil {
			return nil, fmt.Errorf("failed to decode automation of refund %s: %w", m.ID, err)
		}
	}
	e.Ledger = make(entity.RefundLedger, 0, len(m.Ledger))
	for _, row := range m.Ledger {
		e.Ledger = append(e.Ledger, entity.RefundLedgerEntry{
			Status:      entity.RefundStatus(row.Status),
			Timestamp:   row.Timestamp,
			Description: row.Description,
			Actor:       row.Actor,
			Kind:        workflow.EntryKind(row.Kind),
		})
	}
	return e, nil
}
