package lndwallet

import (
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/lightningnetwork/lnd/lnrpc"
)

const (
	identifierPubkey       = "pubkey"
	identifierAlias        = "alias"
	paymentStatusInitiated = "INITIATED"
	unknownNetworkName     = "unknown"
	qualifiedStatusPrefix  = "PaymentStatus."
)

func convertInfo(info *lnrpc.GetInfoResponse, balance *lnrpc.ChannelBalanceResponse, channels []*lnrpc.Channel) wallet.Info {
	identifiers := map[string]string{}
	if pubkey := info.GetIdentityPubkey(); pubkey != "" {
		identifiers[identifierPubkey] = pubkey
	}
	if alias := info.GetAlias(); alias != "" {
		identifiers[identifierAlias] = alias
	}

	synced := info.GetSyncedToChain()
	blockHeight := info.GetBlockHeight()
	result := wallet.Info{
		Identifiers: identifiers,
		Network:     chainNetwork(info),
		Synced:      &synced,
		BlockHeight: &blockHeight,
		Channels:    make([]wallet.Channel, 0, len(channels)),
	}

	if balance != nil {
		if local := balance.GetLocalBalance(); local != nil {
			result.BalanceSat = uint64Pointer(local.GetSat())
		}
		pendingIncoming := balance.GetUnsettledRemoteBalance().GetSat() + balance.GetPendingOpenLocalBalance().GetSat()
		result.PendingIncomingSat = &pendingIncoming
		result.PendingOutgoingSat = uint64Pointer(balance.GetUnsettledLocalBalance().GetSat())
	}

	var maxPayable, maxReceivable uint64
	for _, channel := range channels {
		result.Channels = append(result.Channels, wallet.Channel{
			ID:              strconv.FormatUint(channel.GetChanId(), 10),
			CapacitySat:     nonNegative(channel.GetCapacity()),
			LocalBalanceSat: nonNegative(channel.GetLocalBalance()),
			Active:          channel.GetActive(),
		})
		if !channel.GetActive() {
			continue
		}
		maxPayable += spendable(channel.GetLocalBalance(), channel.GetLocalConstraints().GetChanReserveSat())
		maxReceivable += spendable(channel.GetRemoteBalance(), channel.GetRemoteConstraints().GetChanReserveSat())
	}
	if len(channels) > 0 {
		result.MaxPayableSat = &maxPayable
		result.MaxReceivableSat = &maxReceivable
	}
	return result
}

func chainNetwork(info *lnrpc.GetInfoResponse) *wallet.Network {
	for _, chain := range info.GetChains() {
		name := strings.ToLower(strings.TrimSpace(chain.GetNetwork()))
		if name == "" {
			continue
		}
		network := wallet.Network(name)
		return &network
	}
	return nil
}

func networkName(network *wallet.Network) string {
	if network == nil {
		return unknownNetworkName
	}
	return network.String()
}

func convertSendResponse(quote wallet.SendQuote, response *lnrpc.SendResponse, now time.Time) wallet.SendResult {
	paymentHash := optionalHex(response.GetPaymentHash())
	if paymentHash == nil {
		paymentHash = quote.PaymentHash
	}
	timestamp := now.Unix()
	invoice := quote.PaymentRequest
	payment := &wallet.Payment{
		ID:          paymentHash,
		Timestamp:   &timestamp,
		AmountSat:   quote.AmountSat,
		PaymentType: wallet.PaymentTypeSend,
		Status:      wallet.PaymentStatusCompleted,
		Destination: quote.Destination,
		Details: &wallet.PaymentDetails{
			Invoice:           &invoice,
			PaymentHash:       paymentHash,
			Preimage:          optionalHex(response.GetPaymentPreimage()),
			DestinationPubkey: quote.Destination,
		},
	}
	if route := response.GetPaymentRoute(); route != nil {
		payment.FeesSat = uint64Pointer(uint64(route.GetTotalFeesMsat() / 1000))
	}
	return wallet.SendResult{Payment: payment, PaymentHash: paymentHash}
}

func convertPayment(payment *lnrpc.Payment) wallet.Payment {
	timestamp := payment.GetCreationDate()
	if nanos := payment.GetCreationTimeNs(); nanos > 0 {
		timestamp = nanos / int64(time.Second)
	}
	converted := wallet.Payment{
		ID:          optionalString(payment.GetPaymentHash()),
		Timestamp:   &timestamp,
		AmountSat:   uint64Pointer(nonNegative(payment.GetValueSat())),
		FeesSat:     uint64Pointer(nonNegative(payment.GetFeeSat())),
		PaymentType: wallet.PaymentTypeSend,
		Status:      paymentStatus(payment.GetStatus()),
		Destination: paymentDestination(payment),
		Details: &wallet.PaymentDetails{
			Invoice:     optionalString(payment.GetPaymentRequest()),
			PaymentHash: optionalString(payment.GetPaymentHash()),
		},
	}
	if preimage := payment.GetPaymentPreimage(); strings.Trim(preimage, "0") != "" {
		converted.Details.Preimage = &preimage
	}
	converted.Details.DestinationPubkey = converted.Destination
	return converted
}

func convertInvoice(invoice *lnrpc.Invoice) wallet.Payment {
	timestamp := invoice.GetCreationDate()
	amount := nonNegative(invoice.GetValue())
	if invoice.GetState() == lnrpc.Invoice_SETTLED {
		if settled := invoice.GetSettleDate(); settled > 0 {
			timestamp = settled
		}
		if paid := invoice.GetAmtPaidSat(); paid > 0 {
			amount = uint64(paid)
		}
	}
	var fees uint64
	return wallet.Payment{
		ID:          optionalHex(invoice.GetRHash()),
		Timestamp:   &timestamp,
		AmountSat:   &amount,
		FeesSat:     &fees,
		PaymentType: wallet.PaymentTypeReceive,
		Status:      invoiceStatus(invoice.GetState()),
		Details: &wallet.PaymentDetails{
			Description: optionalString(invoice.GetMemo()),
			Invoice:     optionalString(invoice.GetPaymentRequest()),
			PaymentHash: optionalHex(invoice.GetRHash()),
			Preimage:    optionalHex(invoice.GetRPreimage()),
		},
	}
}

func paymentStatus(status lnrpc.Payment_PaymentStatus) wallet.PaymentStatus {
	switch status {
	case lnrpc.Payment_SUCCEEDED:
		return wallet.PaymentStatusCompleted
	case lnrpc.Payment_IN_FLIGHT:
		return wallet.PaymentStatusPending
	case lnrpc.Payment_FAILED:
		return wallet.PaymentStatusFailed
	}
	if status.String() == paymentStatusInitiated {
		return wallet.PaymentStatusPending
	}
	return wallet.PaymentStatus(qualifiedStatusPrefix + string(wallet.PaymentStatusUnknown))
}

func invoiceStatus(state lnrpc.Invoice_InvoiceState) wallet.PaymentStatus {
	switch state {
	case lnrpc.Invoice_SETTLED:
		return wallet.PaymentStatusCompleted
	case lnrpc.Invoice_OPEN, lnrpc.Invoice_ACCEPTED:
		return wallet.PaymentStatusPending
	case lnrpc.Invoice_CANCELED:
		return wallet.PaymentStatusFailed
	}
	return wallet.PaymentStatus(qualifiedStatusPrefix + string(wallet.PaymentStatusUnknown))
}

// paymentDestination is the last hop of the first successful HTLC attempt.
func paymentDestination(payment *lnrpc.Payment) *string {
	for _, attempt := range payment.GetHtlcs() {
		if attempt.GetStatus() != lnrpc.HTLCAttempt_SUCCEEDED {
			continue
		}
		hops := attempt.GetRoute().GetHops()
		if len(hops) == 0 {
			continue
		}
		return optionalString(hops[len(hops)-1].GetPubKey())
	}
	return nil
}

func spendable(balance int64, reserve uint64) uint64 {
	available := nonNegative(balance)
	if available <= reserve {
		return 0
	}
	return available - reserve
}

func nonNegative(value int64) uint64 {
	if value < 0 {
		return 0
	}
	return uint64(value)
}

func uint64Pointer(value uint64) *uint64 {
	return &value
}
