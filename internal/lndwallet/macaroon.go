package lndwallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/macaroon.v2"
)

// macaroonCredential attaches a hex-encoded macaroon to every RPC. The
// macaroon can be replaced after the wallet is initialized.
type macaroonCredential struct {
	mutex      sync.RWMutex
	encoded    string
	requireTLS bool
}

func newMacaroonCredential(mac *macaroon.Macaroon, requireTLS bool) (*macaroonCredential, error) {
	credential := &macaroonCredential{requireTLS: requireTLS}
	if err := credential.replace(mac); err != nil {
		return nil, err
	}
	return credential, nil
}

func (credential *macaroonCredential) replace(mac *macaroon.Macaroon) error {
	raw, err := mac.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode macaroon: %w", err)
	}
	credential.mutex.Lock()
	credential.encoded = hex.EncodeToString(raw)
	credential.mutex.Unlock()
	return nil
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (credential *macaroonCredential) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	credential.mutex.RLock()
	defer credential.mutex.RUnlock()
	return map[string]string{macaroonMetadataKey: credential.encoded}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
func (credential *macaroonCredential) RequireTransportSecurity() bool {
	return credential.requireTLS
}

// parseMacaroon decodes a hex-encoded binary macaroon.
func parseMacaroon(encoded string) (*macaroon.Macaroon, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("api key is not hex: %w", err)
	}
	return unmarshalMacaroon(raw)
}

func unmarshalMacaroon(raw []byte) (*macaroon.Macaroon, error) {
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode macaroon: %w", err)
	}
	return mac, nil
}

// loadMacaroon prefers the admin macaroon stored by a previous wallet
// initialization over the configured api key.
func loadMacaroon(storageDir string, apiKey string) (*macaroon.Macaroon, error) {
	raw, err := os.ReadFile(filepath.Join(storageDir, adminMacaroonName))
	switch {
	case err == nil:
		return unmarshalMacaroon(raw)
	case errors.Is(err, fs.ErrNotExist):
		return parseMacaroon(apiKey)
	default:
		return nil, fmt.Errorf("read stored macaroon: %w", err)
	}
}

func storeMacaroon(storageDir string, raw []byte) error {
	if err := os.WriteFile(filepath.Join(storageDir, adminMacaroonName), raw, 0o600); err != nil {
		return fmt.Errorf("store admin macaroon: %w", err)
	}
	return nil
}
