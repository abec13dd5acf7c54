package wallet

import "context"

// Session is a connected wallet handle. Implementations synchronize
// internally; callers share one Session across goroutines.
type Session interface {
	GetInfo(ctx context.Context, request GetInfoRequest) (Info, error)
	PrepareSendPayment(ctx context.Context, request PrepareSendRequest) (SendQuote, error)
	SendPayment(ctx context.Context, request SendRequest) (SendResult, error)
	ReceivePayment(ctx context.Context, request ReceiveRequest) (ReceiveResult, error)
	ListPayments(ctx context.Context, request ListPaymentsRequest) (PaymentList, error)
	Disconnect(ctx context.Context) error
}

// Connector opens sessions against a wallet backend.
type Connector interface {
	Connect(ctx context.Context, request ConnectRequest) (Session, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, request ConnectRequest) (Session, error)

// Connect calls fn.
func (fn ConnectorFunc) Connect(ctx context.Context, request ConnectRequest) (Session, error) {
	return fn(ctx, request)
}
