package tools

import (
	"context"
	"sync"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
)

type fakeSession struct {
	mutex sync.Mutex

	info        wallet.Info
	infoError   error
	quote       wallet.SendQuote
	prepareErr  error
	sendResult  wallet.SendResult
	sendErr     error
	receive     wallet.ReceiveResult
	receiveErr  error
	payments    wallet.PaymentList
	listErr     error
	panicOnInfo bool

	getInfoCalls  int
	prepareCalls  int
	sendCalls     int
	receiveCalls  int
	listCalls     int
	infoRequests  []wallet.GetInfoRequest
	sendRequests  []wallet.SendRequest
	receiveCalled []wallet.ReceiveRequest
	listRequests  []wallet.ListPaymentsRequest
}

func (session *fakeSession) GetInfo(_ context.Context, request wallet.GetInfoRequest) (wallet.Info, error) {
	session.mutex.Lock()
	session.getInfoCalls++
	session.infoRequests = append(session.infoRequests, request)
	session.mutex.Unlock()
	if session.panicOnInfo {
		panic("binding exploded")
	}
	return session.info, session.infoError
}

func (session *fakeSession) PrepareSendPayment(_ context.Context, _ wallet.PrepareSendRequest) (wallet.SendQuote, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.prepareCalls++
	return session.quote, session.prepareErr
}

func (session *fakeSession) SendPayment(_ context.Context, request wallet.SendRequest) (wallet.SendResult, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.sendCalls++
	session.sendRequests = append(session.sendRequests, request)
	return session.sendResult, session.sendErr
}

func (session *fakeSession) ReceivePayment(_ context.Context, request wallet.ReceiveRequest) (wallet.ReceiveResult, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.receiveCalls++
	session.receiveCalled = append(session.receiveCalled, request)
	return session.receive, session.receiveErr
}

func (session *fakeSession) ListPayments(_ context.Context, request wallet.ListPaymentsRequest) (wallet.PaymentList, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.listCalls++
	session.listRequests = append(session.listRequests, request)
	return session.payments, session.listErr
}

func (session *fakeSession) Disconnect(context.Context) error {
	return nil
}

type staticProvider struct {
	session wallet.Session
	err     error
}

func (provider staticProvider) Session() (wallet.Session, error) {
	return provider.session, provider.err
}

type recorderLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

func pointer[T any](value T) *T {
	return &value
}
