// Package bluetooth provides the wireless transport for a brain over
// Bluetooth Low Energy.
//
// A brain exposes one GATT service carrying five characteristics: a
// system pair and a user pair (TX notify, RX write, named from the
// device's point of view) plus a pairing characteristic used for PIN
// authentication. The UUIDs come from the devices manifest.
//
// The package splits transport access from protocol state. GATT is the
// minimal characteristic surface a connection needs; BlueZ implements
// it against the system D-Bus for an already-connected peripheral, and
// tests substitute a scripted fake. Connection layers the link
// protocol on top: PIN authentication gating the system channel,
// MTU-sized write chunking, and frame reassembly from notifications.
//
// Establishing the link:
//
//	gatt, err := bluetooth.NewBlueZ(ctx, "A0:B1:C2:D3:E4:F5")
//	if err != nil {
//		return err
//	}
//	conn, err := bluetooth.Open(ctx, gatt, bluetooth.Options{})
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	if err := conn.RequestPairing(ctx); err != nil {
//		return err
//	}
//	// The brain now shows a four digit code on its screen.
//	if err := conn.Authenticate(ctx, readCodeFromUser()); err != nil {
//		return err
//	}
//
// System packet exchange before Authenticate succeeds fails with
// connection.ErrAuthenticationRequired. Scanning and OS-level pairing
// stay outside this package; NewBlueZ binds to a peripheral the
// platform has already connected.
package bluetooth
