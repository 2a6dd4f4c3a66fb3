package serial

import (
	"testing"

	"go.bug.st/serial/enumerator"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/devices"
)

func mustManifest(t *testing.T) *devices.Manifest {
	t.Helper()
	m, err := devices.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return m
}

func TestClassifyBrainPairsPorts(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "AB12"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "AB12"},
	}

	devs := classify(ports, mustManifest(t))
	if len(devs) != 1 {
		t.Fatalf("got %d devices, want 1", len(devs))
	}
	d := devs[0]
	if d.Class != devices.ClassBrain {
		t.Errorf("Class = %q, want brain", d.Class)
	}
	if d.SystemPort != "/dev/ttyACM0" {
		t.Errorf("SystemPort = %q, want /dev/ttyACM0", d.SystemPort)
	}
	if d.UserPort != "/dev/ttyACM1" {
		t.Errorf("UserPort = %q, want /dev/ttyACM1", d.UserPort)
	}
	if d.Kind() != connection.KindWired {
		t.Errorf("Kind = %v, want WIRED", d.Kind())
	}
}

func TestClassifyBrainMissingUserPort(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "AB12"},
	}

	devs := classify(ports, mustManifest(t))
	if len(devs) != 1 {
		t.Fatalf("got %d devices, want 1", len(devs))
	}
	if devs[0].SystemPort != "/dev/ttyACM0" || devs[0].UserPort != "" {
		t.Errorf("ports = %q/%q, want system only", devs[0].SystemPort, devs[0].UserPort)
	}
}

func TestClassifyController(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM2", IsUSB: true, VID: "2888", PID: "0502", SerialNumber: "CTRL1"},
	}

	devs := classify(ports, mustManifest(t))
	if len(devs) != 1 {
		t.Fatalf("got %d devices, want 1", len(devs))
	}
	d := devs[0]
	if d.Class != devices.ClassController {
		t.Errorf("Class = %q, want controller", d.Class)
	}
	if d.UserPort != "" {
		t.Errorf("UserPort = %q, want empty", d.UserPort)
	}
	if d.Kind() != connection.KindController {
		t.Errorf("Kind = %v, want CONTROLLER", d.Kind())
	}
}

func TestClassifyIgnoresForeignPorts(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "16c0", PID: "0483", SerialNumber: "X"},
		{Name: "/dev/ttyACM5", IsUSB: true, VID: "2888", PID: "9999", SerialNumber: "Y"},
		{Name: "/dev/ttyACM6", IsUSB: true, VID: "", PID: "", SerialNumber: ""},
	}

	if devs := classify(ports, mustManifest(t)); len(devs) != 0 {
		t.Errorf("got %d devices, want 0: %v", len(devs), devs)
	}
}

func TestClassifyMultipleDevices(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM3", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "B2"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "B1"},
		{Name: "/dev/ttyACM4", IsUSB: true, VID: "2888", PID: "0502", SerialNumber: "C1"},
		{Name: "/dev/ttyACM2", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "B2"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2888", PID: "0501", SerialNumber: "B1"},
	}

	devs := classify(ports, mustManifest(t))
	if len(devs) != 3 {
		t.Fatalf("got %d devices, want 3: %v", len(devs), devs)
	}

	// Sorted by system port.
	if devs[0].SystemPort != "/dev/ttyACM0" || devs[0].UserPort != "/dev/ttyACM1" {
		t.Errorf("first device ports = %q/%q", devs[0].SystemPort, devs[0].UserPort)
	}
	if devs[1].SystemPort != "/dev/ttyACM2" || devs[1].UserPort != "/dev/ttyACM3" {
		t.Errorf("second device ports = %q/%q", devs[1].SystemPort, devs[1].UserPort)
	}
	if devs[2].SystemPort != "/dev/ttyACM4" || devs[2].Class != devices.ClassController {
		t.Errorf("third device = %+v", devs[2])
	}
}

func TestDeviceString(t *testing.T) {
	brain := Device{Product: "V5 Brain", SystemPort: "/dev/ttyACM0", UserPort: "/dev/ttyACM1"}
	if got := brain.String(); got != "V5 Brain (/dev/ttyACM0, user /dev/ttyACM1)" {
		t.Errorf("String() = %q", got)
	}

	controller := Device{Product: "V5 Controller", SystemPort: "/dev/ttyACM2"}
	if got := controller.String(); got != "V5 Controller (/dev/ttyACM2)" {
		t.Errorf("String() = %q", got)
	}
}
