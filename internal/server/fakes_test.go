package server

import (
	"context"
	"errors"
	"sync"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
)

type stubSession struct {
	mutex           sync.Mutex
	balanceSat      uint64
	disconnectCalls int
}

func (session *stubSession) GetInfo(context.Context, wallet.GetInfoRequest) (wallet.Info, error) {
	balance := session.balanceSat
	network := wallet.NetworkTestnet
	return wallet.Info{
		Identifiers: map[string]string{"pubkey": "02abc"},
		Network:     &network,
		BalanceSat:  &balance,
	}, nil
}

func (session *stubSession) PrepareSendPayment(context.Context, wallet.PrepareSendRequest) (wallet.SendQuote, error) {
	return wallet.SendQuote{}, errors.New("not supported")
}

func (session *stubSession) SendPayment(context.Context, wallet.SendRequest) (wallet.SendResult, error) {
	return wallet.SendResult{}, errors.New("not supported")
}

func (session *stubSession) ReceivePayment(context.Context, wallet.ReceiveRequest) (wallet.ReceiveResult, error) {
	return wallet.ReceiveResult{}, errors.New("not supported")
}

func (session *stubSession) ListPayments(context.Context, wallet.ListPaymentsRequest) (wallet.PaymentList, error) {
	return wallet.PaymentList{}, nil
}

func (session *stubSession) Disconnect(context.Context) error {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.disconnectCalls++
	return nil
}

func (session *stubSession) disconnects() int {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.disconnectCalls
}

func sessionConnector(session wallet.Session, err error) wallet.Connector {
	return wallet.ConnectorFunc(func(context.Context, wallet.ConnectRequest) (wallet.Session, error) {
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

type staticHealth bool

func (source staticHealth) Connected() bool { return bool(source) }

type panicHealth struct{}

func (panicHealth) Connected() bool { panic("health exploded") }

func validConfig() Config {
	cfg := Config{
		APIKey:   "0201036c6e64",
		Mnemonic: "abandon abandon art",
		Network:  wallet.NetworkTestnet,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
