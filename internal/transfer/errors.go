package transfer

import "errors"

// Error kinds returned by the transfer package. Transport errors are
// wrapped with fmt.Errorf and "%w" so callers can still errors.Is
// against io.EOF/net.Error; context.Canceled is used directly for a
// cancelled operation.
var (
	ErrUnsupportedVersion  = errors.New("transfer: unsupported protocol version")
	ErrUnsupportedFormat   = errors.New("transfer: peer rejected format")
	ErrUnsupportedSize     = errors.New("transfer: peer rejected size")
	ErrTransferFailed      = errors.New("transfer: payload not acknowledged")
	ErrInvalidConfiguration = errors.New("transfer: invalid configuration")
)
