// Package cdc implements the simple V5 command protocol.
//
// Simple commands are single request/reply exchanges with no integrity
// check beyond the envelope: the host sends a DeviceBound packet and the
// device answers with a reply that echoes the command ID and carries a
// size-prefixed body. The bootloader and identity surface of the device
// speaks this protocol; everything stateful goes through the extended
// protocol in package cdc2.
package cdc
