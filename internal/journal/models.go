package journal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OperationRow mirrors the tool_operations table.
type OperationRow struct {
	OperationID string         `gorm:"type:uuid;primaryKey"`
	Operation   string         `gorm:"not null;index:idx_tool_operations_operation"`
	Status      string         `gorm:"not null"`
	AmountSat   *int64         `gorm:""`
	PaymentHash *string        `gorm:"index:idx_tool_operations_payment_hash"`
	Error       *string        `gorm:""`
	ErrorCode   *string        `gorm:""`
	Details     datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_tool_operations_created"`
}

func (OperationRow) TableName() string { return "tool_operations" }

func (row *OperationRow) BeforeCreate(tx *gorm.DB) error {
	if row.OperationID == "" {
		row.OperationID = uuid.NewString()
	}
	return nil
}
