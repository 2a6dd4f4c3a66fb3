// Package devices holds the identity constants of supported hardware:
// USB vendor and product IDs with their port layouts, and the BLE
// service and characteristic UUIDs. The manifest is embedded so the
// transport packages and the CLI classify devices from one source.
package devices

import (
	_ "embed"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed devices.yaml
var manifestRaw []byte

// Class is the product class of a device.
type Class string

const (
	// ClassBrain is the V5 robot brain.
	ClassBrain Class = "brain"

	// ClassController is the V5 wireless controller.
	ClassController Class = "controller"
)

// PortRole names one of the logical channels a product exposes as a
// serial port.
type PortRole string

const (
	// RoleSystem is the command channel.
	RoleSystem PortRole = "system"

	// RoleUser is the program I/O channel.
	RoleUser PortRole = "user"
)

// Manifest is the embedded device identity table.
type Manifest struct {
	USB       USBManifest       `yaml:"usb"`
	Bluetooth BluetoothManifest `yaml:"bluetooth"`
}

// USBManifest describes the USB identity of supported products.
type USBManifest struct {
	VendorID uint16       `yaml:"vendor_id"`
	Products []USBProduct `yaml:"products"`
}

// USBProduct is one supported USB product and its serial port layout.
// Products exposing both roles enumerate one port per role, in the
// listed order.
type USBProduct struct {
	ProductID uint16     `yaml:"product_id"`
	Name      string     `yaml:"name"`
	Class     Class      `yaml:"class"`
	Ports     []PortRole `yaml:"ports"`
}

// BluetoothManifest describes the GATT identity of a brain.
type BluetoothManifest struct {
	Service         string                   `yaml:"service"`
	Characteristics BluetoothCharacteristics `yaml:"characteristics"`
}

// BluetoothCharacteristics names the characteristic of each logical
// channel. TX and RX are from the device's point of view: the host
// reads TX characteristics and writes RX characteristics.
type BluetoothCharacteristics struct {
	SystemTx string `yaml:"system_tx"`
	SystemRx string `yaml:"system_rx"`
	UserTx   string `yaml:"user_tx"`
	UserRx   string `yaml:"user_rx"`
	Pairing  string `yaml:"pairing"`
}

// ServiceUUID returns the parsed GATT service UUID.
func (b BluetoothManifest) ServiceUUID() (uuid.UUID, error) {
	return uuid.Parse(b.Service)
}

// All returns every characteristic UUID keyed by role name.
func (c BluetoothCharacteristics) All() map[string]string {
	return map[string]string{
		"system_tx": c.SystemTx,
		"system_rx": c.SystemRx,
		"user_tx":   c.UserTx,
		"user_rx":   c.UserRx,
		"pairing":   c.Pairing,
	}
}

var (
	loadOnce sync.Once
	manifest *Manifest
	loadErr  error
)

// Load parses the embedded manifest. The result is cached; all callers
// share one instance.
func Load() (*Manifest, error) {
	loadOnce.Do(func() {
		var m Manifest
		if err := yaml.Unmarshal(manifestRaw, &m); err != nil {
			loadErr = fmt.Errorf("parsing device manifest: %w", err)
			return
		}
		if err := m.validate(); err != nil {
			loadErr = fmt.Errorf("device manifest: %w", err)
			return
		}
		manifest = &m
	})
	return manifest, loadErr
}

func (m *Manifest) validate() error {
	if m.USB.VendorID == 0 {
		return fmt.Errorf("usb vendor_id missing")
	}
	if len(m.USB.Products) == 0 {
		return fmt.Errorf("no usb products")
	}
	for _, p := range m.USB.Products {
		if p.ProductID == 0 || p.Name == "" || len(p.Ports) == 0 {
			return fmt.Errorf("incomplete product entry %#04x", p.ProductID)
		}
	}
	for role, id := range m.Bluetooth.Characteristics.All() {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("characteristic %s: %w", role, err)
		}
	}
	if _, err := m.Bluetooth.ServiceUUID(); err != nil {
		return fmt.Errorf("service uuid: %w", err)
	}
	return nil
}

// Product looks up a USB product by ID.
func (m *Manifest) Product(pid uint16) (USBProduct, bool) {
	for _, p := range m.USB.Products {
		if p.ProductID == pid {
			return p, true
		}
	}
	return USBProduct{}, false
}

// IsVendor reports whether vid is the supported vendor.
func (m *Manifest) IsVendor(vid uint16) bool {
	return vid == m.USB.VendorID
}

// ParseUSBID parses a hexadecimal USB ID string as reported by port
// enumeration (e.g. "2888").
func ParseUSBID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing usb id %q: %w", s, err)
	}
	return uint16(v), nil
}
