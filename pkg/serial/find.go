package serial

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/devices"
)

// Device is one discovered peripheral and the serial ports it
// enumerated.
type Device struct {
	// Class is the product class from the manifest.
	Class devices.Class

	// Product is the manifest's product name.
	Product string

	// Serial is the USB serial number shared by the device's ports.
	Serial string

	// SystemPort is the port carrying framed protocol packets.
	SystemPort string

	// UserPort is the port carrying raw program I/O. Empty when the
	// product exposes none, or when it has not enumerated yet.
	UserPort string
}

// Kind returns the transport class a connection to this device will
// report.
func (d Device) Kind() connection.Kind {
	if d.Class == devices.ClassController {
		return connection.KindController
	}
	return connection.KindWired
}

// String renders the device for listings.
func (d Device) String() string {
	if d.UserPort != "" {
		return fmt.Sprintf("%s (%s, user %s)", d.Product, d.SystemPort, d.UserPort)
	}
	return fmt.Sprintf("%s (%s)", d.Product, d.SystemPort)
}

// Find enumerates USB serial ports and classifies them against the
// device manifest. Unsupported and non-USB ports are ignored.
func Find() ([]Device, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating ports: %w", connection.ErrSerial, err)
	}
	manifest, err := devices.Load()
	if err != nil {
		return nil, err
	}
	return classify(ports, manifest), nil
}

// classify groups enumerated ports into devices. Ports of a dual-port
// product share a USB serial number; within a group, ports sorted by
// name take the manifest's roles in order.
func classify(ports []*enumerator.PortDetails, manifest *devices.Manifest) []Device {
	type group struct {
		product devices.USBProduct
		serial  string
		names   []string
	}
	groups := make(map[string]*group)
	var order []string

	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		vid, err := devices.ParseUSBID(p.VID)
		if err != nil || !manifest.IsVendor(vid) {
			continue
		}
		pid, err := devices.ParseUSBID(p.PID)
		if err != nil {
			continue
		}
		product, ok := manifest.Product(pid)
		if !ok {
			continue
		}

		key := p.SerialNumber + "/" + p.PID
		if len(product.Ports) == 1 {
			// Single-port products never pair, even with a shared
			// serial number.
			key = p.Name
		}
		g, ok := groups[key]
		if !ok {
			g = &group{product: product, serial: p.SerialNumber}
			groups[key] = g
			order = append(order, key)
		}
		g.names = append(g.names, p.Name)
	}

	var out []Device
	for _, key := range order {
		g := groups[key]
		sort.Strings(g.names)

		d := Device{
			Class:   g.product.Class,
			Product: g.product.Name,
			Serial:  g.serial,
		}
		for i, role := range g.product.Ports {
			if i >= len(g.names) {
				break
			}
			switch role {
			case devices.RoleSystem:
				d.SystemPort = g.names[i]
			case devices.RoleUser:
				d.UserPort = g.names[i]
			}
		}
		if d.SystemPort == "" {
			continue
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SystemPort < out[j].SystemPort })
	return out
}
