package lndwallet

const (
	aezeedWordCount        = 24
	minWalletPasswordBytes = 8
	macaroonMetadataKey    = "macaroon"
	adminMacaroonName      = "admin.macaroon"
	minFeeLimitSat         = 10
	feeLimitDivisor        = 100

	errorOperationLND      = "lnd"
	errorSubjectConnection = "connection"
	errorSubjectWallet     = "wallet"
	errorSubjectPayment    = "payment"
	errorSubjectInvoice    = "invoice"
	errorCodeDial          = "dial"
	errorCodeCredentials   = "credentials"
	errorCodeStorage       = "storage"
	errorCodeState         = "state"
	errorCodeNetwork       = "network"
	errorCodeInfo          = "info"
	errorCodeDecode        = "decode"
	errorCodeSend          = "send"
	errorCodeAdd           = "add"
	errorCodeList          = "list"
	errorCodeClose         = "close"
)
