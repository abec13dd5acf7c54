package lndwallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"
)

const preimageBytes = 32

// Session is a connected LND node. It implements wallet.Session; the
// underlying gRPC connection is safe for concurrent use.
type Session struct {
	conn      *grpc.ClientConn
	lightning lnrpc.LightningClient
	cfg       Config
	clock     func() time.Time

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn *grpc.ClientConn, cfg Config, clock func() time.Time) *Session {
	return &Session{
		conn:      conn,
		lightning: lnrpc.NewLightningClient(conn),
		cfg:       cfg,
		clock:     clock,
	}
}

// GetInfo combines node info, channel balances and channels. With
// EnsureSynced it polls a lagging node for up to SyncWait and then reports
// whatever sync state the node has reached.
func (session *Session) GetInfo(ctx context.Context, request wallet.GetInfoRequest) (wallet.Info, error) {
	info, err := session.lightning.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return wallet.Info{}, upstreamError(errorSubjectWallet, errorCodeInfo, err)
	}
	if request.EnsureSynced && !info.GetSyncedToChain() {
		if info, err = session.waitForSync(ctx, info); err != nil {
			return wallet.Info{}, err
		}
	}
	balance, err := session.lightning.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return wallet.Info{}, upstreamError(errorSubjectWallet, errorCodeInfo, err)
	}
	channels, err := session.lightning.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return wallet.Info{}, upstreamError(errorSubjectWallet, errorCodeInfo, err)
	}
	return convertInfo(info, balance, channels.GetChannels()), nil
}

func (session *Session) waitForSync(ctx context.Context, info *lnrpc.GetInfoResponse) (*lnrpc.GetInfoResponse, error) {
	timer := time.NewTimer(session.cfg.SyncWait)
	defer timer.Stop()
	ticker := time.NewTicker(session.cfg.StatePollInterval)
	defer ticker.Stop()
	for !info.GetSyncedToChain() {
		select {
		case <-ctx.Done():
			return nil, upstreamError(errorSubjectWallet, errorCodeInfo, ctx.Err())
		case <-timer.C:
			return info, nil
		case <-ticker.C:
		}
		next, err := session.lightning.GetInfo(ctx, &lnrpc.GetInfoRequest{})
		if err != nil {
			return nil, upstreamError(errorSubjectWallet, errorCodeInfo, err)
		}
		info = next
	}
	return info, nil
}

// PrepareSendPayment decodes the invoice into a quote.
func (session *Session) PrepareSendPayment(ctx context.Context, request wallet.PrepareSendRequest) (wallet.SendQuote, error) {
	payReq, err := session.lightning.DecodePayReq(ctx, &lnrpc.PayReqString{PayReq: request.PaymentRequest})
	if err != nil {
		return wallet.SendQuote{}, upstreamError(errorSubjectPayment, errorCodeDecode, err)
	}
	if payReq.GetNumSatoshis() <= 0 {
		return wallet.SendQuote{}, wallet.WrapError(errorOperationLND, errorSubjectPayment, errorCodeDecode,
			fmt.Errorf("%w: invoices without an amount are not supported", wallet.ErrValidation))
	}
	if expiresAt := payReq.GetTimestamp() + payReq.GetExpiry(); payReq.GetExpiry() > 0 && expiresAt < session.clock().Unix() {
		return wallet.SendQuote{}, wallet.WrapError(errorOperationLND, errorSubjectPayment, errorCodeDecode,
			fmt.Errorf("%w: invoice expired at %d", wallet.ErrValidation, expiresAt))
	}
	amount := uint64(payReq.GetNumSatoshis())
	feeLimit := feeLimitSat(amount)
	return wallet.SendQuote{
		PaymentRequest: request.PaymentRequest,
		AmountSat:      &amount,
		FeeLimitSat:    &feeLimit,
		Destination:    optionalString(payReq.GetDestination()),
		PaymentHash:    optionalString(payReq.GetPaymentHash()),
	}, nil
}

// SendPayment pays a prepared quote and waits for the outcome.
func (session *Session) SendPayment(ctx context.Context, request wallet.SendRequest) (wallet.SendResult, error) {
	quote := request.Quote
	sendRequest := &lnrpc.SendRequest{PaymentRequest: quote.PaymentRequest}
	if quote.FeeLimitSat != nil {
		sendRequest.FeeLimit = &lnrpc.FeeLimit{Limit: &lnrpc.FeeLimit_Fixed{Fixed: int64(*quote.FeeLimitSat)}}
	}
	response, err := session.lightning.SendPaymentSync(ctx, sendRequest)
	if err != nil {
		return wallet.SendResult{}, upstreamError(errorSubjectPayment, errorCodeSend, err)
	}
	if response.GetPaymentError() != "" {
		return wallet.SendResult{}, upstreamError(errorSubjectPayment, errorCodeSend, errors.New(response.GetPaymentError()))
	}
	return convertSendResponse(quote, response, session.clock()), nil
}

// ReceivePayment creates a BOLT11 invoice with a locally generated preimage.
func (session *Session) ReceivePayment(ctx context.Context, request wallet.ReceiveRequest) (wallet.ReceiveResult, error) {
	method, ok := request.Method.(wallet.ReceiveMethodBolt11Invoice)
	if !ok {
		return wallet.ReceiveResult{}, wallet.WrapError(errorOperationLND, errorSubjectInvoice, errorCodeAdd,
			fmt.Errorf("%w: unsupported receive method %T", wallet.ErrValidation, request.Method))
	}
	preimage := make([]byte, preimageBytes)
	if _, err := rand.Read(preimage); err != nil {
		return wallet.ReceiveResult{}, upstreamError(errorSubjectInvoice, errorCodeAdd, fmt.Errorf("generate preimage: %w", err))
	}
	expiry := int64(session.cfg.InvoiceExpiry / time.Second)
	response, err := session.lightning.AddInvoice(ctx, &lnrpc.Invoice{
		Memo:      method.Description,
		Value:     int64(method.AmountSat),
		RPreimage: preimage,
		Expiry:    expiry,
	})
	if err != nil {
		return wallet.ReceiveResult{}, upstreamError(errorSubjectInvoice, errorCodeAdd, err)
	}
	var feeSat uint64
	return wallet.ReceiveResult{
		PaymentRequest: optionalString(response.GetPaymentRequest()),
		FeeSat:         &feeSat,
		PaymentHash:    optionalHex(response.GetRHash()),
		Preimage:       optionalHex(preimage),
		Expiry:         &expiry,
	}, nil
}

// ListPayments merges outgoing payments and open, accepted or settled
// invoices, ordered by timestamp.
func (session *Session) ListPayments(ctx context.Context, request wallet.ListPaymentsRequest) (wallet.PaymentList, error) {
	limit := uint64(request.Limit)
	outgoing, err := session.lightning.ListPayments(ctx, &lnrpc.ListPaymentsRequest{
		IncludeIncomplete: true,
		MaxPayments:       limit,
		Reversed:          !request.SortAscending,
	})
	if err != nil {
		return wallet.PaymentList{}, upstreamError(errorSubjectPayment, errorCodeList, err)
	}
	incoming, err := session.lightning.ListInvoices(ctx, &lnrpc.ListInvoiceRequest{
		NumMaxInvoices: limit,
		Reversed:       !request.SortAscending,
	})
	if err != nil {
		return wallet.PaymentList{}, upstreamError(errorSubjectInvoice, errorCodeList, err)
	}

	payments := make([]wallet.Payment, 0, len(outgoing.GetPayments())+len(incoming.GetInvoices()))
	for _, payment := range outgoing.GetPayments() {
		payments = append(payments, convertPayment(payment))
	}
	for _, invoice := range incoming.GetInvoices() {
		if invoice.GetState() == lnrpc.Invoice_CANCELED {
			continue
		}
		payments = append(payments, convertInvoice(invoice))
	}
	sortPayments(payments, request.SortAscending)
	if limit > 0 && uint64(len(payments)) > limit {
		payments = payments[:limit]
	}
	return wallet.PaymentList{Payments: payments}, nil
}

// Disconnect closes the gRPC connection. Later calls return the first result.
func (session *Session) Disconnect(context.Context) error {
	session.closeOnce.Do(func() {
		if err := session.conn.Close(); err != nil {
			session.closeErr = wallet.WrapError(errorOperationLND, errorSubjectConnection, errorCodeClose, err)
		}
	})
	return session.closeErr
}

func sortPayments(payments []wallet.Payment, ascending bool) {
	sort.SliceStable(payments, func(left, right int) bool {
		leftTimestamp := timestampOrZero(payments[left].Timestamp)
		rightTimestamp := timestampOrZero(payments[right].Timestamp)
		if ascending {
			return leftTimestamp < rightTimestamp
		}
		return leftTimestamp > rightTimestamp
	})
}

func feeLimitSat(amount uint64) uint64 {
	limit := amount / feeLimitDivisor
	if limit < minFeeLimitSat {
		return minFeeLimitSat
	}
	return limit
}

func upstreamError(subject string, code string, err error) error {
	return wallet.WrapError(errorOperationLND, subject, code, wallet.Upstream(err))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalHex(value []byte) *string {
	if len(value) == 0 {
		return nil
	}
	encoded := hex.EncodeToString(value)
	return &encoded
}

func timestampOrZero(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}
