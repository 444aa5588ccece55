package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeReceiptNotFound:          "Transaction receipt not found",

	// Tick/price math errors
	CodeInvalidPrice:   "Price must be a positive number",
	CodeInvalidTick:    "Tick outside the valid tick range",
	CodeInvalidRange:   "Invalid tick range",
	CodeRangeTooNarrow: "Aligned range is narrower than one tick spacing",

	// Quote/calculation errors
	CodeCalculationFailed: "Paired amount calculation failed",
	CodePoolNotFound:      "Pool not found for token pair",
	CodeInvalidQuote:      "Invalid quote data",

	// Wallet/signing errors
	CodeWalletRejected:        "User rejected the wallet request",
	CodeTransactionReverted:   "Transaction reverted on chain",
	CodeNetworkMismatch:       "Wallet is connected to the wrong network",
	CodeSigningFailed:         "Failed to sign payload",
	CodeUnexpectedPermitToken: "Permit batch references a token outside the deposit",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
