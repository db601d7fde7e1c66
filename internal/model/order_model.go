package model

import "time"

// Order is the read model of the storefront order collaborator.
type Order struct {
	Ref                    string `gorm:"type:varchar(100);primaryKey"`
	Number                 string `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerRef            string `gorm:"type:varchar(100);not null;index"`
	Amount                 int64  `gorm:"not null"`
	Currency               string `gorm:"type:char(3);not null"`
	PlacedAt               time.Time
	GatewayRef             string `gorm:"type:varchar(255)"`
	OriginalTransactionRef string `gorm:"type:varchar(255)"`
	DuplicateOf            string `gorm:"type:varchar(100)"`
}

func (Order) TableName() string {
	return "orders"
}

type Customer struct {
	Ref     string `gorm:"type:varchar(100);primaryKey"`
	Name    string `gorm:"type:varchar(255)"`
	Email   string `gorm:"type:varchar(255)"`
	Flagged bool   `gorm:"not null;default:false"`
}

func (Customer) TableName() string {
	return "customers"
}
