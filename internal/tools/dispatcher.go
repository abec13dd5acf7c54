// Package tools implements the wallet tools exposed over MCP.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/normalize"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
)

// SessionProvider hands out the active wallet session.
type SessionProvider interface {
	Session() (wallet.Session, error)
}

// Dispatcher runs the wallet tools. Every method returns either the
// normalized record of the operation or a normalize.ErrorRecord; failures
// never escape as errors or panics.
type Dispatcher struct {
	sessions SessionProvider
	logger   OperationLogger
}

type operation func(ctx context.Context, session wallet.Session, entry *OperationLog) (any, error)

// NewDispatcher builds a Dispatcher around a session provider.
func NewDispatcher(sessions SessionProvider, options ...DispatcherOption) (*Dispatcher, error) {
	if sessions == nil {
		return nil, fmt.Errorf("%w: session provider is nil", wallet.ErrConfiguration)
	}
	dispatcher := &Dispatcher{sessions: sessions}
	for _, option := range options {
		if option != nil {
			option(dispatcher)
		}
	}
	return dispatcher, nil
}

// GetBalance returns a normalize.BalanceSnapshot.
func (dispatcher *Dispatcher) GetBalance(ctx context.Context) any {
	return dispatcher.run(ctx, OperationLog{Operation: ToolGetBalance}, messageGetBalance,
		func(ctx context.Context, session wallet.Session, _ *OperationLog) (any, error) {
			info, err := session.GetInfo(ctx, wallet.GetInfoRequest{EnsureSynced: true})
			if err != nil {
				return nil, err
			}
			return normalize.Balance(info), nil
		})
}

// GetNodeInfo returns a normalize.NodeInfo.
func (dispatcher *Dispatcher) GetNodeInfo(ctx context.Context) any {
	return dispatcher.run(ctx, OperationLog{Operation: ToolGetNodeInfo}, messageGetNodeInfo,
		func(ctx context.Context, session wallet.Session, _ *OperationLog) (any, error) {
			info, err := session.GetInfo(ctx, wallet.GetInfoRequest{EnsureSynced: true})
			if err != nil {
				return nil, err
			}
			return normalize.NodeInfo(info), nil
		})
}

// SendPayment prepares a quote for invoice and submits it. Submission is
// skipped when preparation fails.
func (dispatcher *Dispatcher) SendPayment(ctx context.Context, invoice string) any {
	entry := OperationLog{Operation: ToolSendPayment}
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return dispatcher.fail(ctx, entry, messageSendPayment, fmt.Errorf("%w: invoice is required", wallet.ErrValidation))
	}
	return dispatcher.run(ctx, entry, messageSendPayment,
		func(ctx context.Context, session wallet.Session, entry *OperationLog) (any, error) {
			quote, err := session.PrepareSendPayment(ctx, wallet.PrepareSendRequest{PaymentRequest: invoice})
			if err != nil {
				return nil, fmt.Errorf("prepare payment: %w", err)
			}
			entry.AmountSat = quote.AmountSat
			if quote.PaymentHash != nil {
				entry.PaymentHash = *quote.PaymentHash
			}
			result, err := session.SendPayment(ctx, wallet.SendRequest{Quote: quote})
			if err != nil {
				return nil, fmt.Errorf("send payment: %w", err)
			}
			if result.PaymentHash != nil {
				entry.PaymentHash = *result.PaymentHash
			}
			return normalize.SendPayment(result), nil
		})
}

// CreateInvoice requests a BOLT11 invoice. amountSat below one is rejected
// before the wallet is contacted.
func (dispatcher *Dispatcher) CreateInvoice(ctx context.Context, amountSat int64, description string) any {
	entry := OperationLog{Operation: ToolCreateInvoice}
	if amountSat < minInvoiceAmountSat {
		return dispatcher.fail(ctx, entry, messageCreateInvoice,
			fmt.Errorf("%w: amount_sats must be at least %d, got %d", wallet.ErrValidation, minInvoiceAmountSat, amountSat))
	}
	amount := uint64(amountSat)
	entry.AmountSat = &amount
	method := wallet.ReceiveMethodBolt11Invoice{Description: description, AmountSat: amount}
	return dispatcher.run(ctx, entry, messageCreateInvoice,
		func(ctx context.Context, session wallet.Session, entry *OperationLog) (any, error) {
			result, err := session.ReceivePayment(ctx, wallet.ReceiveRequest{Method: method})
			if err != nil {
				return nil, err
			}
			if result.PaymentHash != nil {
				entry.PaymentHash = *result.PaymentHash
			}
			return normalize.Invoice(method, result), nil
		})
}

// ListPayments returns up to limit payments, most recent first.
func (dispatcher *Dispatcher) ListPayments(ctx context.Context, limit int) any {
	entry := OperationLog{Operation: ToolListPayments}
	if limit < minPaymentsLimit || limit > maxPaymentsLimit {
		return dispatcher.fail(ctx, entry, messageListPayments,
			fmt.Errorf("%w: limit must be between %d and %d, got %d", wallet.ErrValidation, minPaymentsLimit, maxPaymentsLimit, limit))
	}
	return dispatcher.run(ctx, entry, messageListPayments,
		func(ctx context.Context, session wallet.Session, _ *OperationLog) (any, error) {
			list, err := session.ListPayments(ctx, wallet.ListPaymentsRequest{Limit: uint32(limit), SortAscending: false})
			if err != nil {
				return nil, err
			}
			return normalize.Payments(list), nil
		})
}

func (dispatcher *Dispatcher) run(ctx context.Context, entry OperationLog, failureMessage string, call operation) (result any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = dispatcher.fail(ctx, entry, failureMessage, fmt.Errorf("%w: panic: %v", wallet.ErrUpstream, recovered))
		}
	}()

	session, err := dispatcher.sessions.Session()
	if err != nil {
		return dispatcher.fail(ctx, entry, failureMessage, err)
	}
	output, err := call(ctx, session, &entry)
	if err != nil {
		return dispatcher.fail(ctx, entry, failureMessage, wallet.Upstream(err))
	}
	entry.Status = operationStatusOK
	entry.Output = output
	dispatcher.logOperation(ctx, entry)
	return output
}

func (dispatcher *Dispatcher) fail(ctx context.Context, entry OperationLog, message string, err error) normalize.ErrorRecord {
	entry.Status = operationStatusError
	entry.Error = err
	dispatcher.logOperation(ctx, entry)
	return normalize.Error(message, err)
}

func (dispatcher *Dispatcher) logOperation(ctx context.Context, entry OperationLog) {
	if dispatcher.logger == nil {
		return
	}
	dispatcher.logger.LogOperation(ctx, entry)
}
