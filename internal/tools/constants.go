package tools

const (
	ToolGetBalance    = "get_balance"
	ToolGetNodeInfo   = "get_node_info"
	ToolSendPayment   = "send_payment"
	ToolCreateInvoice = "create_invoice"
	ToolListPayments  = "list_payments"

	messageGetBalance    = "Failed to get balance"
	messageGetNodeInfo   = "Failed to get node info"
	messageSendPayment   = "Failed to send payment"
	messageCreateInvoice = "Failed to create invoice"
	messageListPayments  = "Failed to list payments"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	defaultInvoiceDescription = "MCP Payment"
	defaultPaymentsLimit      = 10
	minPaymentsLimit          = 1
	maxPaymentsLimit          = 100
	minInvoiceAmountSat       = 1
)
