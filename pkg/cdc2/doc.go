// Package cdc2 implements the extended V5 command protocol.
//
// Extended commands ride inside the simple envelope under a single
// command ID, with their own sub-ID, a CRC16 over the whole frame, and
// an explicit acknowledgement byte in every reply. A nacked reply is
// still a well-formed frame: it decodes cleanly, and Reply.Result
// converts the failure acknowledgement into a NackError.
//
// # Frame Layout
//
// Device-bound:
//
//	C9 36 B8 47 | 56 | ext ID | size | payload | CRC16
//
// Host-bound:
//
//	AA 55 | 56 | size | ext ID | ack | payload | CRC16
//
// The CRC16 (XMODEM polynomial, big-endian) spans every byte of the
// frame that precedes it, magic included. The host-bound size counts
// everything after it, checksum included.
package cdc2
