package output

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a compact display.
	HalfBlocks bool
}

// DefaultQRConfig returns the settings used for share codes. Share values
// are long decimal strings, so medium correction keeps them scannable from
// a photographed screen.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// SharePayload is the text encoded in a share's QR code.
func SharePayload(session string, participant, secret, group int, value string) string {
	return fmt.Sprintf("multisecret:%s:%d:%d:%d:%s", session, participant, secret, group, value)
}

// CanRenderQR checks if w is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	return IsTerminal(w)
}

// RenderQR draws data as a QR code on a terminal. Non-terminal writers get
// nothing and no error.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if !CanRenderQR(w) {
		return nil
	}
	return WriteQR(w, data, cfg)
}

// WriteQR draws data unconditionally. The payload is validated by encoding
// it once before drawing, since qrterminal has no error return.
func WriteQR(w io.Writer, data string, cfg QRConfig) error {
	if _, err := qr.Encode(data, cfg.Level); err != nil {
		return fmt.Errorf("encoding qr code: %w", err)
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}
