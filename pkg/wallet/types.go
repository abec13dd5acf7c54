package wallet

import (
	"fmt"
	"strings"
)

// Network selects the chain a wallet session operates on.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// ParseNetwork maps a configured value to a Network; anything but "testnet" is mainnet.
func ParseNetwork(raw string) Network {
	if strings.EqualFold(strings.TrimSpace(raw), string(NetworkTestnet)) {
		return NetworkTestnet
	}
	return NetworkMainnet
}

// String returns the network name.
func (network Network) String() string {
	return string(network)
}

// PaymentStatus is the qualified status text reported by a wallet backend.
// Values outside the declared constants are kept verbatim.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PaymentStatus.PENDING"
	PaymentStatusCompleted PaymentStatus = "PaymentStatus.COMPLETED"
	PaymentStatusFailed    PaymentStatus = "PaymentStatus.FAILED"
	PaymentStatusUnknown   PaymentStatus = "UNKNOWN"
)

// ShortToken maps known statuses to pending/completed/failed and passes
// anything else through unchanged.
func (status PaymentStatus) ShortToken() string {
	switch status {
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusCompleted:
		return "completed"
	case PaymentStatusFailed:
		return "failed"
	case "":
		return string(PaymentStatusUnknown)
	default:
		return string(status)
	}
}

// String returns the qualified status text.
func (status PaymentStatus) String() string {
	if status == "" {
		return string(PaymentStatusUnknown)
	}
	return string(status)
}

// PaymentType is the qualified direction text reported by a wallet backend.
type PaymentType string

const (
	PaymentTypeSend    PaymentType = "PaymentType.SEND"
	PaymentTypeReceive PaymentType = "PaymentType.RECEIVE"
	PaymentTypeUnknown PaymentType = "UNKNOWN"
)

// ShortToken maps SEND/RECEIVE to sent/received and passes anything else through.
func (paymentType PaymentType) ShortToken() string {
	switch paymentType {
	case PaymentTypeSend:
		return "sent"
	case PaymentTypeReceive:
		return "received"
	case "":
		return string(PaymentTypeUnknown)
	default:
		return string(paymentType)
	}
}

// String returns the qualified type text.
func (paymentType PaymentType) String() string {
	if paymentType == "" {
		return string(PaymentTypeUnknown)
	}
	return string(paymentType)
}

// Seed holds the wallet recovery phrase.
type Seed struct {
	Mnemonic   string
	Passphrase string
}

// Words splits the mnemonic on whitespace.
func (seed Seed) Words() []string {
	return strings.Fields(seed.Mnemonic)
}

// Config carries the backend-facing settings of a session.
type Config struct {
	APIKey  string
	Network Network
}

// ConnectRequest is everything a Connector needs to open a session.
type ConnectRequest struct {
	Config     Config
	Seed       Seed
	StorageDir string
}

// Validate checks that the required credentials are present.
func (request ConnectRequest) Validate() error {
	if strings.TrimSpace(request.Config.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", ErrConnection)
	}
	if len(request.Seed.Words()) == 0 {
		return fmt.Errorf("%w: mnemonic is required", ErrConnection)
	}
	if strings.TrimSpace(request.StorageDir) == "" {
		return fmt.Errorf("%w: storage dir is required", ErrConnection)
	}
	return nil
}

// GetInfoRequest asks for wallet and node state.
type GetInfoRequest struct {
	EnsureSynced bool
}

// Channel is a single payment channel as reported by the backend.
type Channel struct {
	ID              string
	CapacitySat     uint64
	LocalBalanceSat uint64
	Active          bool
}

// Info is the raw wallet/node state. Nil pointers mean the backend did not
// report the field.
type Info struct {
	// Identifiers holds every identity field the backend exposed, keyed by
	// the backend's own field name.
	Identifiers        map[string]string
	Network            *Network
	Channels           []Channel
	BalanceSat         *uint64
	PendingIncomingSat *uint64
	PendingOutgoingSat *uint64
	MaxPayableSat      *uint64
	MaxReceivableSat   *uint64
	TotalFeesPaidSat   *uint64
	Synced             *bool
	BlockHeight        *uint32
}

// LnurlPayInfo describes the LNURL-pay exchange a payment came from.
type LnurlPayInfo struct {
	LnAddress *string `json:"ln_address,omitempty"`
	Comment   *string `json:"comment,omitempty"`
	Domain    *string `json:"domain,omitempty"`
	URL       *string `json:"url,omitempty"`
}

// LnurlWithdrawInfo describes the LNURL-withdraw exchange a payment came from.
type LnurlWithdrawInfo struct {
	WithdrawURL string `json:"withdraw_url"`
}

// PaymentDetails carries the method-specific parts of a payment.
type PaymentDetails struct {
	Description       *string
	Preimage          *string
	Invoice           *string
	PaymentHash       *string
	DestinationPubkey *string
	LnurlPayInfo      *LnurlPayInfo
	LnurlWithdrawInfo *LnurlWithdrawInfo
}

// Payment is a single wallet payment as reported by the backend.
type Payment struct {
	ID          *string
	Timestamp   *int64
	AmountSat   *uint64
	FeesSat     *uint64
	PaymentType PaymentType
	Status      PaymentStatus
	Destination *string
	TxID        *string
	Details     *PaymentDetails
}

// PrepareSendRequest asks the backend to quote a payment.
type PrepareSendRequest struct {
	PaymentRequest string
}

// SendQuote is the prepared payment returned by PrepareSendPayment and
// handed back unchanged to SendPayment.
type SendQuote struct {
	PaymentRequest string
	AmountSat      *uint64
	FeeLimitSat    *uint64
	Destination    *string
	PaymentHash    *string
}

// SendRequest submits a prepared payment.
type SendRequest struct {
	Quote SendQuote
}

// SendResult is the outcome of SendPayment.
type SendResult struct {
	Payment     *Payment
	PaymentHash *string
}

// ReceiveMethod selects how funds are requested. Implemented by
// ReceiveMethodBolt11Invoice.
type ReceiveMethod interface {
	receiveMethod()
}

// ReceiveMethodBolt11Invoice requests a BOLT11 invoice.
type ReceiveMethodBolt11Invoice struct {
	Description string
	AmountSat   uint64
}

func (ReceiveMethodBolt11Invoice) receiveMethod() {}

// ReceiveRequest asks the backend for a payment request.
type ReceiveRequest struct {
	Method ReceiveMethod
}

// ReceiveResult is the raw response to ReceivePayment.
type ReceiveResult struct {
	PaymentRequest  *string
	FeeSat          *uint64
	LnurlPayRequest *string
	PaymentHash     *string
	Preimage        *string
	Expiry          *int64
}

// ListPaymentsRequest pages through payment history.
type ListPaymentsRequest struct {
	Limit         uint32
	SortAscending bool
}

// PaymentList is the raw response to ListPayments.
type PaymentList struct {
	Payments []Payment
}
