// Package journal keeps a durable record of the wallet operations requested
// through the tools.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/tools"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultDetailsJSON = "{}"
	defaultRecentLimit = 20

	errorOperationJournal = "journal"
	errorSubjectOperation = "operation"
	errorCodeMigrate      = "migrate"
	errorCodeInsert       = "insert"
	errorCodeList         = "list"
	errorCodeEncode       = "encode"
)

// ErrInvalidJournal is returned when the journal is built without a database.
var ErrInvalidJournal = errors.New("invalid journal config")

// Entry is one recorded tool operation.
type Entry struct {
	ID          string          `json:"id"`
	Operation   string          `json:"operation"`
	Status      string          `json:"status"`
	AmountSat   *uint64         `json:"amount_sat,omitempty"`
	PaymentHash string          `json:"payment_hash,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Option configures a Journal instance.
type Option func(*Journal)

// WithClock overrides the time source used for CreatedAt.
func WithClock(clock func() time.Time) Option {
	return func(journal *Journal) {
		if clock != nil {
			journal.clock = clock
		}
	}
}

// WithLogger sets the logger that reports failed writes.
func WithLogger(logger *zap.Logger) Option {
	return func(journal *Journal) {
		if logger != nil {
			journal.logger = logger
		}
	}
}

// Journal stores tool operations with GORM.
type Journal struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// New returns a Journal backed by db.
func New(db *gorm.DB, options ...Option) (*Journal, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database is nil", ErrInvalidJournal)
	}
	journal := &Journal{
		db:     db,
		clock:  func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(journal)
		}
	}
	return journal, nil
}

// Migrate creates or updates the journal schema.
func (journal *Journal) Migrate(ctx context.Context) error {
	if err := journal.db.WithContext(ctx).AutoMigrate(&OperationRow{}); err != nil {
		return wrapJournalError(errorCodeMigrate, err)
	}
	return nil
}

// Record inserts entry. ID and CreatedAt are assigned when empty.
func (journal *Journal) Record(ctx context.Context, entry Entry) error {
	row := OperationRow{
		OperationID: entry.ID,
		Operation:   entry.Operation,
		Status:      entry.Status,
		Details:     datatypes.JSON(defaultDetailsJSON),
		CreatedAt:   entry.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = journal.clock()
	}
	if entry.AmountSat != nil {
		amount := int64(*entry.AmountSat)
		row.AmountSat = &amount
	}
	if entry.PaymentHash != "" {
		paymentHash := entry.PaymentHash
		row.PaymentHash = &paymentHash
	}
	if entry.Error != "" {
		message := entry.Error
		row.Error = &message
	}
	if entry.ErrorCode != "" {
		code := entry.ErrorCode
		row.ErrorCode = &code
	}
	if len(entry.Details) > 0 {
		row.Details = datatypes.JSON(entry.Details)
	}
	if err := journal.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapJournalError(errorCodeInsert, err)
	}
	return nil
}

// Recent lists up to limit entries, newest first. A non-positive limit uses
// the default of 20.
func (journal *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var rows []OperationRow
	err := journal.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapJournalError(errorCodeList, err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, mapOperationRow(row))
	}
	return entries, nil
}

// LogOperation implements tools.OperationLogger. Write failures are logged
// and dropped so they never reach the tool caller.
func (journal *Journal) LogOperation(ctx context.Context, operation tools.OperationLog) {
	entry := Entry{
		Operation:   operation.Operation,
		Status:      operation.Status,
		AmountSat:   operation.AmountSat,
		PaymentHash: operation.PaymentHash,
	}
	if operation.Error != nil {
		entry.Error = operation.Error.Error()
		entry.ErrorCode = wallet.ErrorCode(operation.Error)
	}
	if operation.Output != nil {
		details, err := json.Marshal(operation.Output)
		if err != nil {
			journal.logger.Warn("journal encode failed", zap.String("operation", operation.Operation), zap.Error(wrapJournalError(errorCodeEncode, err)))
		} else {
			entry.Details = details
		}
	}
	if err := journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		journal.logger.Warn("journal write failed", zap.String("operation", operation.Operation), zap.Error(err))
	}
}

func wrapJournalError(code string, err error) error {
	return wallet.WrapError(errorOperationJournal, errorSubjectOperation, code, err)
}

func mapOperationRow(row OperationRow) Entry {
	entry := Entry{
		ID:        row.OperationID,
		Operation: row.Operation,
		Status:    row.Status,
		Details:   json.RawMessage(row.Details),
		CreatedAt: row.CreatedAt,
	}
	if row.AmountSat != nil && *row.AmountSat >= 0 {
		amount := uint64(*row.AmountSat)
		entry.AmountSat = &amount
	}
	if row.PaymentHash != nil {
		entry.PaymentHash = *row.PaymentHash
	}
	if row.Error != nil {
		entry.Error = *row.Error
	}
	if row.ErrorCode != nil {
		entry.ErrorCode = *row.ErrorCode
	}
	return entry
}
