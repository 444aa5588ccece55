package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Deposit-specific error codes
const (
	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeReceiptNotFound          Code = "RECEIPT_NOT_FOUND"

	// Tick/price math errors
	CodeInvalidPrice   Code = "INVALID_PRICE"
	CodeInvalidTick    Code = "INVALID_TICK"
	CodeInvalidRange   Code = "INVALID_RANGE"
	CodeRangeTooNarrow Code = "RANGE_TOO_NARROW"

	// Quote/calculation errors
	CodeCalculationFailed Code = "CALCULATION_FAILED"
	CodePoolNotFound      Code = "POOL_NOT_FOUND"
	CodeInvalidQuote      Code = "INVALID_QUOTE"

	// Wallet/signing errors
	CodeWalletRejected        Code = "WALLET_REJECTED"
	CodeTransactionReverted   Code = "TRANSACTION_REVERTED"
	CodeNetworkMismatch       Code = "NETWORK_MISMATCH"
	CodeSigningFailed         Code = "SIGNING_FAILED"
	CodeUnexpectedPermitToken Code = "UNEXPECTED_PERMIT_TOKEN"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
