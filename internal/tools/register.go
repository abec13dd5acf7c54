package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetBalanceInput takes no arguments.
type GetBalanceInput struct{}

// GetNodeInfoInput takes no arguments.
type GetNodeInfoInput struct{}

// SendPaymentInput is the send_payment argument set.
type SendPaymentInput struct {
	Invoice string `json:"invoice" jsonschema:"BOLT11 invoice to pay"`
}

// CreateInvoiceInput is the create_invoice argument set.
type CreateInvoiceInput struct {
	AmountSats  int64   `json:"amount_sats"           jsonschema:"Amount in satoshis, at least 1"`
	Description *string `json:"description,omitempty" jsonschema:"Payment description, defaults to MCP Payment"`
}

// ListPaymentsInput is the list_payments argument set.
type ListPaymentsInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Number of payments to return, between 1 and 100, defaults to 10"`
}

// Register adds every wallet tool to server.
func (dispatcher *Dispatcher) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetBalance,
		Description: "Get wallet balance",
	}, recordHandler(func(ctx context.Context, _ GetBalanceInput) any {
		return dispatcher.GetBalance(ctx)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetNodeInfo,
		Description: "Get node information",
	}, recordHandler(func(ctx context.Context, _ GetNodeInfoInput) any {
		return dispatcher.GetNodeInfo(ctx)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSendPayment,
		Description: "Send a Lightning payment",
	}, recordHandler(func(ctx context.Context, input SendPaymentInput) any {
		return dispatcher.SendPayment(ctx, input.Invoice)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolCreateInvoice,
		Description: "Create a Lightning invoice",
	}, recordHandler(func(ctx context.Context, input CreateInvoiceInput) any {
		description := defaultInvoiceDescription
		if input.Description != nil {
			description = *input.Description
		}
		return dispatcher.CreateInvoice(ctx, input.AmountSats, description)
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListPayments,
		Description: "List recent payments",
	}, recordHandler(func(ctx context.Context, input ListPaymentsInput) any {
		limit := defaultPaymentsLimit
		if input.Limit != nil {
			limit = *input.Limit
		}
		return dispatcher.ListPayments(ctx, limit)
	}))
}

// recordHandler adapts a dispatcher call to the SDK handler signature. The
// record, including error records, is returned as structured content so the
// MCP call itself always succeeds.
func recordHandler[In any](call func(ctx context.Context, input In) any) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		return nil, call(ctx, input), nil
	}
}
