// Package serial implements the wired device link over USB serial
// ports.
//
// A brain enumerates two ports sharing one USB serial number: the
// system port carrying framed protocol packets and the user port
// carrying raw program I/O. A controller enumerates a single system
// port and bridges packets to its paired brain over the radio, which
// is why user writes are refused on controller connections.
//
// Find enumerates candidate devices and classifies them against the
// embedded manifest; Open establishes the link:
//
//	devs, err := serial.Find()
//	if err != nil || len(devs) == 0 {
//	    // no device plugged in
//	}
//	conn, err := serial.Open(devs[0], serial.Options{})
//
// Received bytes accumulate in a connection buffer and packets are
// extracted by scanning for the host-bound magic sequence, so line
// noise and partial frames from a previous session do not desync the
// stream.
package serial
