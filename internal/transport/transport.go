// Package transport provides the byte links to the M8Q receiver. The
// protocol engine consumes the ubx.Transport subset; the application owns
// opening and closing.
package transport

import (
	"io"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// Transport is a closable duplex byte link to the receiver.
type Transport interface {
	ubx.Transport
	io.Closer
}
