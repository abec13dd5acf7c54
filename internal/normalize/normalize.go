// Package normalize turns raw wallet responses into the stable JSON records
// returned by the tools. Every function is total: absent fields are omitted
// or defaulted, never reported as errors.
package normalize

import (
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	networkUnknown = "unknown"

	messagePaymentSent    = "Payment sent successfully"
	messageInvoiceCreated = "Invoice created successfully"
)

// nodeIDCandidates is the lookup order for the node identity. Backends have
// named this field differently across versions.
var nodeIDCandidates = []string{"id", "node_id", "nodeId", "pubkey", "public_key", "node_pubkey"}

// NodeID returns the first identifier present in nodeIDCandidates order.
func NodeID(identifiers map[string]string) *string {
	for _, candidate := range nodeIDCandidates {
		if value, ok := identifiers[candidate]; ok {
			return &value
		}
	}
	return nil
}

// Balance builds a BalanceSnapshot from wallet info.
func Balance(info wallet.Info) BalanceSnapshot {
	snapshot := BalanceSnapshot{
		BalanceSat:         valueOrZero(info.BalanceSat),
		PendingIncomingSat: valueOrZero(info.PendingIncomingSat),
		PendingOutgoingSat: valueOrZero(info.PendingOutgoingSat),
		MaxPayableSat:      copyPointer(info.MaxPayableSat),
		MaxReceivableSat:   copyPointer(info.MaxReceivableSat),
		TotalFeesPaidSat:   copyPointer(info.TotalFeesPaidSat),
	}
	snapshot.BalanceFormatted = FormatSats(snapshot.BalanceSat)
	if snapshot.PendingIncomingSat > 0 {
		snapshot.PendingIncomingFormatted = FormatSats(snapshot.PendingIncomingSat)
	}
	if snapshot.PendingOutgoingSat > 0 {
		snapshot.PendingOutgoingFormatted = FormatSats(snapshot.PendingOutgoingSat)
	}
	return snapshot
}

// NodeInfo builds a NodeInfoRecord from wallet info. Synced defaults to true.
func NodeInfo(info wallet.Info) NodeInfoRecord {
	record := NodeInfoRecord{
		NodeID:             NodeID(info.Identifiers),
		Network:            networkUnknown,
		ChannelsCount:      len(info.Channels),
		PendingIncomingSat: copyPointer(info.PendingIncomingSat),
		PendingOutgoingSat: copyPointer(info.PendingOutgoingSat),
		Synced:             true,
		BlockHeight:        copyPointer(info.BlockHeight),
	}
	record.Channels = record.ChannelsCount > 0
	if info.Network != nil {
		record.Network = info.Network.String()
	}
	if info.BalanceSat != nil {
		record.BalanceSat = copyPointer(info.BalanceSat)
		record.BalanceFormatted = FormatSats(*info.BalanceSat)
	}
	if info.Synced != nil {
		record.Synced = *info.Synced
	}
	if info.MaxPayableSat != nil || info.MaxReceivableSat != nil {
		record.Capabilities = &Capabilities{
			MaxPayableSat:    copyPointer(info.MaxPayableSat),
			MaxReceivableSat: copyPointer(info.MaxReceivableSat),
		}
	}
	return record
}

// Payment builds a PaymentRecord. Detail fields that identify the payment
// are also copied to the top level.
func Payment(payment wallet.Payment) PaymentRecord {
	record := PaymentRecord{
		ID:            copyPointer(payment.ID),
		Timestamp:     copyPointer(payment.Timestamp),
		AmountSat:     copyPointer(payment.AmountSat),
		FeesSat:       copyPointer(payment.FeesSat),
		PaymentType:   payment.PaymentType.String(),
		Status:        payment.Status.String(),
		Destination:   copyPointer(payment.Destination),
		TxID:          copyPointer(payment.TxID),
		Type:          payment.PaymentType.ShortToken(),
		PaymentStatus: payment.Status.ShortToken(),
	}
	if details := payment.Details; details != nil {
		record.Details = PaymentDetailsRecord{
			Description:       copyPointer(details.Description),
			Preimage:          copyPointer(details.Preimage),
			Invoice:           copyPointer(details.Invoice),
			PaymentHash:       copyPointer(details.PaymentHash),
			DestinationPubkey: copyPointer(details.DestinationPubkey),
		}
		if details.LnurlPayInfo != nil {
			lnurlPayInfo := *details.LnurlPayInfo
			record.Details.LnurlPayInfo = &lnurlPayInfo
		}
		if details.LnurlWithdrawInfo != nil {
			lnurlWithdrawInfo := *details.LnurlWithdrawInfo
			record.Details.LnurlWithdrawInfo = &lnurlWithdrawInfo
		}
		record.PaymentHash = copyPointer(details.PaymentHash)
		record.Description = copyPointer(details.Description)
		record.Preimage = copyPointer(details.Preimage)
		record.DestinationPubkey = copyPointer(details.DestinationPubkey)
	}
	return record
}

// SendPayment builds the send_payment result.
func SendPayment(result wallet.SendResult) SendPaymentResult {
	record := SendPaymentResult{
		Status:  statusSuccess,
		Message: messagePaymentSent,
		TxID:    copyPointer(result.PaymentHash),
	}
	if result.Payment != nil {
		payment := Payment(*result.Payment)
		record.PaymentRecord = &payment
		record.Status = payment.Status
	}
	return record
}

// Invoice builds the create_invoice result from the request that produced it.
func Invoice(request wallet.ReceiveMethodBolt11Invoice, result wallet.ReceiveResult) InvoiceResult {
	record := InvoiceResult{
		Status:      statusSuccess,
		Message:     messageInvoiceCreated,
		AmountSat:   request.AmountSat,
		Description: request.Description,
		Invoice:     copyPointer(result.PaymentRequest),
		Destination: copyPointer(result.PaymentRequest),
		FeeSat:      copyPointer(result.FeeSat),
		Lnurl:       copyPointer(result.LnurlPayRequest),
		PaymentHash: copyPointer(result.PaymentHash),
		Preimage:    copyPointer(result.Preimage),
		Expiry:      copyPointer(result.Expiry),
	}
	if result.PaymentHash != nil || result.Preimage != nil || result.Expiry != nil {
		record.Details = &InvoiceDetails{
			PaymentHash: copyPointer(result.PaymentHash),
			Preimage:    copyPointer(result.Preimage),
			Expiry:      copyPointer(result.Expiry),
		}
	}
	return record
}

// Payments builds the list_payments result. An empty list yields an empty,
// non-nil payments slice.
func Payments(list wallet.PaymentList) PaymentListResult {
	records := make([]PaymentRecord, 0, len(list.Payments))
	for _, payment := range list.Payments {
		records = append(records, Payment(payment))
	}
	return PaymentListResult{Payments: records, TotalCount: len(records)}
}

// Error builds the failure payload for message with err as details.
func Error(message string, err error) ErrorRecord {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return ErrorRecord{
		Status:  statusError,
		Error:   message,
		Message: message,
		Details: details,
	}
}

func valueOrZero[T any](value *T) T {
	var zero T
	if value == nil {
		return zero
	}
	return *value
}

func copyPointer[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
