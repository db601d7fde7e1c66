package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProductionItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderRef     string    `gorm:"type:varchar(100);not null;index"`
	ItemRef      string    `gorm:"type:varchar(100)"`
	ProductName  string    `gorm:"type:varchar(255);not null"`
	Quantity     int       `gorm:"not null"`
	Priority     string    `gorm:"type:varchar(20);not null;default:'normal'"`
	PriorityRank int       `gorm:"not null;default:1;index"`
	Status       string    `gorm:"type:varchar(50);not null;default:'queued';index"`
	AssignedTo   *string   `gorm:"type:varchar(100)"`
	History      datatypes.JSON
	Version      int64 `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ProductionItem) TableName() string {
	return "production_items"
}
