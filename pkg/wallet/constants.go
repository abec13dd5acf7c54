package wallet

const (
	operationConnect    = "connect"
	operationDisconnect = "disconnect"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	errorOperationManager = "manager"
	errorSubjectSession   = "session"
	errorCodeConnect      = "connect"
	errorCodeDisconnect   = "disconnect"
)
