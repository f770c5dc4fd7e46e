package transfer

import (
	"fmt"

	"clipsync/internal/wire"
)

// ClientHandshake writes the client's Version tag and waits for
// SuccessVersion.
func ClientHandshake(w *wire.Writer, r *wire.Reader) error {
	if err := w.WriteTag(wire.Version); err != nil {
		return fmt.Errorf("transfer: write version: %w", err)
	}
	if err := w.WriteUint16(wire.ProtocolVersion); err != nil {
		return fmt.Errorf("transfer: write version number: %w", err)
	}
	tag, err := r.ReadTag()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedVersion, err)
	}
	if tag != wire.SuccessVersion {
		return ErrUnsupportedVersion
	}
	return nil
}

// ServerHandshake reads the client's Version tag; on mismatch it writes
// Error and returns ErrUnsupportedVersion, otherwise it writes
// SuccessVersion.
func ServerHandshake(w *wire.Writer, r *wire.Reader) error {
	tag, err := r.ReadTag()
	if err != nil {
		return fmt.Errorf("transfer: read version tag: %w", err)
	}
	if tag != wire.Version {
		_ = w.WriteTag(wire.Error)
		return ErrUnsupportedVersion
	}
	version, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("transfer: read version number: %w", err)
	}
	if version != wire.ProtocolVersion {
		_ = w.WriteTag(wire.Error)
		return ErrUnsupportedVersion
	}
	if err := w.WriteTag(wire.SuccessVersion); err != nil {
		return fmt.Errorf("transfer: write success version: %w", err)
	}
	return nil
}
