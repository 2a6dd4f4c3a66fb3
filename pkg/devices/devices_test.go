package devices

import (
	"testing"

	"github.com/google/uuid"
)

func TestLoad(t *testing.T) {
	m, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m.USB.VendorID != 0x2888 {
		t.Errorf("VendorID = %#04x, want 0x2888", m.USB.VendorID)
	}
	if len(m.USB.Products) != 2 {
		t.Fatalf("got %d products, want 2", len(m.USB.Products))
	}

	// Load is cached.
	again, err := Load()
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if again != m {
		t.Error("second Load() returned a different instance")
	}
}

func TestProductLookup(t *testing.T) {
	m := mustLoad(t)

	brain, ok := m.Product(0x0501)
	if !ok {
		t.Fatal("brain product not found")
	}
	if brain.Class != ClassBrain {
		t.Errorf("Class = %q, want %q", brain.Class, ClassBrain)
	}
	if len(brain.Ports) != 2 || brain.Ports[0] != RoleSystem || brain.Ports[1] != RoleUser {
		t.Errorf("brain ports = %v, want [system user]", brain.Ports)
	}

	controller, ok := m.Product(0x0502)
	if !ok {
		t.Fatal("controller product not found")
	}
	if controller.Class != ClassController {
		t.Errorf("Class = %q, want %q", controller.Class, ClassController)
	}
	if len(controller.Ports) != 1 || controller.Ports[0] != RoleSystem {
		t.Errorf("controller ports = %v, want [system]", controller.Ports)
	}

	if _, ok := m.Product(0x9999); ok {
		t.Error("unknown product id resolved")
	}
}

func TestIsVendor(t *testing.T) {
	m := mustLoad(t)

	if !m.IsVendor(0x2888) {
		t.Error("IsVendor(0x2888) = false")
	}
	if m.IsVendor(0x16c0) {
		t.Error("IsVendor(0x16c0) = true")
	}
}

func TestBluetoothUUIDs(t *testing.T) {
	m := mustLoad(t)

	svc, err := m.Bluetooth.ServiceUUID()
	if err != nil {
		t.Fatalf("ServiceUUID() error: %v", err)
	}
	if svc == (uuid.UUID{}) {
		t.Error("service uuid is zero")
	}

	chars := m.Bluetooth.Characteristics.All()
	if len(chars) != 5 {
		t.Fatalf("got %d characteristics, want 5", len(chars))
	}
	seen := map[string]bool{}
	for role, id := range chars {
		u, err := uuid.Parse(id)
		if err != nil {
			t.Errorf("characteristic %s: %v", role, err)
			continue
		}
		if seen[u.String()] {
			t.Errorf("characteristic %s duplicates another uuid", role)
		}
		seen[u.String()] = true
	}
}

func TestParseUSBID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"2888", 0x2888, false},
		{"0501", 0x0501, false},
		{"0x2888", 0, true},
		{"", 0, true},
		{"zz", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseUSBID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUSBID(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUSBID(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUSBID(%q) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
}

func mustLoad(t *testing.T) *Manifest {
	t.Helper()
	m, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return m
}
