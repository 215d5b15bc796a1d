// Package dlnaerr defines the error kinds raised by the protocol engine.
package dlnaerr

// Code classifies an error raised anywhere in the engine, mirroring the
// kinds enumerated in the error handling table of the specification.
type Code string

const (
	CodeInternal             Code = "INTERNAL_ERROR"
	CodeMalformedDatagram    Code = "MALFORMED_SSDP_DATAGRAM"
	CodeDeviceAddFailed      Code = "DEVICE_ADD_FAILED"
	CodeMalformedDescription Code = "MALFORMED_DEVICE_XML"
	CodeSoapFault            Code = "SOAP_FAULT"
	CodeSoapInvalidResponse  Code = "SOAP_INVALID_RESPONSE"
	CodeSubscriptionRejected Code = "SUBSCRIPTION_REJECTED"
	CodeSubscriptionNotFound Code = "SUBSCRIPTION_NOT_FOUND"
	CodeInvalidAction        Code = "INVALID_ACTION"
	CodeInvalidArgs          Code = "INVALID_ARGS"
	CodeActionNotAuthorized  Code = "ACTION_NOT_AUTHORIZED"
	CodeNotFound             Code = "NOT_FOUND"
)

// AppError is the error type returned across package boundaries in this
// module. StatusCode is the HTTP status the condition maps to when the
// error surfaces on an HTTP route (0 when there is no HTTP surface).
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *AppError) Error() string { return e.Message }

func New(code Code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

func Malformed(message string) *AppError {
	return New(CodeMalformedDatagram, message, 0)
}

func DeviceAddFailed(message string) *AppError {
	return New(CodeDeviceAddFailed, message, 0)
}

func MalformedDescription(message string) *AppError {
	return New(CodeMalformedDescription, message, 0)
}

func SoapFault(message string) *AppError {
	return New(CodeSoapFault, message, 500)
}

func SubscriptionRejected(message string) *AppError {
	return New(CodeSubscriptionRejected, message, 412)
}

func InvalidAction(message string) *AppError {
	return New(CodeInvalidAction, message, 400)
}

func InvalidArgs(message string) *AppError {
	return New(CodeInvalidArgs, message, 402)
}

func ActionNotAuthorized(message string) *AppError {
	return New(CodeActionNotAuthorized, message, 606)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, 404)
}

// Ensure converts an arbitrary error into an *AppError, wrapping it as an
// internal error when it is not already one.
func Ensure(err error) *AppError {
	if err == nil {
		return New(CodeInternal, "unknown error", 500)
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(CodeInternal, err.Error(), 500)
}
