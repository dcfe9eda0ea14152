package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrafficEvent is one customer in/out count observed for a store at an instant.
// Rows are append-only.
type TrafficEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID      int       `gorm:"not null;index" json:"store_id"`
	CustomersIn  int       `gorm:"not null" json:"customers_in"`
	CustomersOut int       `gorm:"not null" json:"customers_out"`
	TimeStamp    time.Time `gorm:"not null;index" json:"time_stamp"`
}

func (TrafficEvent) TableName() string {
	return "customer_traffic"
}

func (e *TrafficEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.TimeStamp.IsZero() {
		e.TimeStamp = time.Now().UTC()
	}
	return nil
}

// NetChange is the occupancy delta this event represents.
func (e TrafficEvent) NetChange() int {
	return e.CustomersIn - e.CustomersOut
}

// Empty reports whether nobody entered or left.
func (e TrafficEvent) Empty() bool {
	return e.CustomersIn == 0 && e.CustomersOut == 0
}

// StoreTotals is the lifetime sum of customers in and out for one store.
type StoreTotals struct {
	StoreID  int `gorm:"column:store_id"`
	TotalIn  int `gorm:"column:total_in"`
	TotalOut int `gorm:"column:total_out"`
}
