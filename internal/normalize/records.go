package normalize

// BalanceSnapshot is the get_balance output.
type BalanceSnapshot struct {
	BalanceSat               uint64  `json:"balance_sat"`
	PendingIncomingSat       uint64  `json:"pending_incoming_sat"`
	PendingOutgoingSat       uint64  `json:"pending_outgoing_sat"`
	MaxPayableSat            *uint64 `json:"max_payable_sat,omitempty"`
	MaxReceivableSat         *uint64 `json:"max_receivable_sat,omitempty"`
	TotalFeesPaidSat         *uint64 `json:"total_fees_paid_sat,omitempty"`
	BalanceFormatted         string  `json:"balance_formatted"`
	PendingIncomingFormatted string  `json:"pending_incoming_formatted,omitempty"`
	PendingOutgoingFormatted string  `json:"pending_outgoing_formatted,omitempty"`
}

// Capabilities holds the payment limits a node reported.
type Capabilities struct {
	MaxPayableSat    *uint64 `json:"max_payable_sat,omitempty"`
	MaxReceivableSat *uint64 `json:"max_receivable_sat,omitempty"`
}

// NodeInfoRecord is the get_node_info output.
type NodeInfoRecord struct {
	NodeID             *string       `json:"node_id"`
	Network            string        `json:"network"`
	ChannelsCount      int           `json:"channels_count"`
	Channels           bool          `json:"channels"`
	BalanceSat         *uint64       `json:"balance_sat,omitempty"`
	BalanceFormatted   string        `json:"balance_formatted,omitempty"`
	PendingIncomingSat *uint64       `json:"pending_incoming_sat,omitempty"`
	PendingOutgoingSat *uint64       `json:"pending_outgoing_sat,omitempty"`
	Synced             bool          `json:"synced"`
	BlockHeight        *uint32       `json:"block_height,omitempty"`
	Capabilities       *Capabilities `json:"capabilities,omitempty"`
}

// PaymentDetailsRecord is the nested details object of a PaymentRecord.
type PaymentDetailsRecord struct {
	Description       *string `json:"description,omitempty"`
	Preimage          *string `json:"preimage,omitempty"`
	Invoice           *string `json:"invoice,omitempty"`
	PaymentHash       *string `json:"payment_hash,omitempty"`
	DestinationPubkey *string `json:"destination_pubkey,omitempty"`
	LnurlPayInfo      any     `json:"lnurl_pay_info,omitempty"`
	LnurlWithdrawInfo any     `json:"lnurl_withdraw_info,omitempty"`
}

// PaymentRecord is one normalized payment. The nullable fields are always
// present in the JSON output.
type PaymentRecord struct {
	ID                *string              `json:"id"`
	Timestamp         *int64               `json:"timestamp"`
	AmountSat         *uint64              `json:"amount_sat"`
	FeesSat           *uint64              `json:"fees_sat"`
	PaymentType       string               `json:"payment_type"`
	Status            string               `json:"status"`
	Destination       *string              `json:"destination"`
	TxID              *string              `json:"tx_id"`
	Details           PaymentDetailsRecord `json:"details"`
	Type              string               `json:"type"`
	PaymentStatus     string               `json:"payment_status"`
	PaymentHash       *string              `json:"payment_hash,omitempty"`
	Description       *string              `json:"description,omitempty"`
	Preimage          *string              `json:"preimage,omitempty"`
	DestinationPubkey *string              `json:"destination_pubkey,omitempty"`
}

// SendPaymentResult is the send_payment output. When a payment is attached
// its fields are flattened into the result and its status replaces Status.
type SendPaymentResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*PaymentRecord
	TxID *string `json:"txid,omitempty"`
}

// InvoiceDetails collects the invoice secrets and expiry.
type InvoiceDetails struct {
	PaymentHash *string `json:"payment_hash,omitempty"`
	Preimage    *string `json:"preimage,omitempty"`
	Expiry      *int64  `json:"expiry,omitempty"`
}

// InvoiceResult is the create_invoice output.
type InvoiceResult struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	AmountSat   uint64          `json:"amount_sat"`
	Description string          `json:"description"`
	Invoice     *string         `json:"invoice,omitempty"`
	Destination *string         `json:"destination,omitempty"`
	FeeSat      *uint64         `json:"fee_sat,omitempty"`
	Lnurl       *string         `json:"lnurl,omitempty"`
	PaymentHash *string         `json:"payment_hash,omitempty"`
	Preimage    *string         `json:"preimage,omitempty"`
	Expiry      *int64          `json:"expiry,omitempty"`
	Details     *InvoiceDetails `json:"details,omitempty"`
}

// PaymentListResult is the list_payments output.
type PaymentListResult struct {
	Payments   []PaymentRecord `json:"payments"`
	TotalCount int             `json:"total_count"`
}

// ErrorRecord is the uniform failure payload returned by every tool.
type ErrorRecord struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}
