package bluetooth

import (
	"bytes"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestFindAdapter(t *testing.T) {
	objects := managedObjects{
		"/org/bluez/hci1":        {adapterIface: {}},
		"/org/bluez/hci0":        {adapterIface: {}},
		"/org/bluez/hci0/dev_AA": {deviceIface: {}},
	}

	adapter, ok := findAdapter(objects)
	if !ok {
		t.Fatal("findAdapter found nothing")
	}
	if adapter != "/org/bluez/hci0" {
		t.Errorf("adapter = %s, want /org/bluez/hci0", adapter)
	}

	if _, ok := findAdapter(managedObjects{"/org/bluez/hci0/dev_AA": {deviceIface: {}}}); ok {
		t.Error("findAdapter matched a host without adapters")
	}
}

func TestDevicePathFor(t *testing.T) {
	got := devicePathFor("/org/bluez/hci0", "a0:b1:c2:d3:e4:f5")
	want := dbus.ObjectPath("/org/bluez/hci0/dev_A0_B1_C2_D3_E4_F5")
	if got != want {
		t.Errorf("devicePathFor = %s, want %s", got, want)
	}
}

func TestFindService(t *testing.T) {
	device := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")
	serviceUUID := "08590f7e-db05-467e-8757-72f6faeb13d5"
	objects := managedObjects{
		device + "/service0001": {
			serviceIface: {"UUID": dbus.MakeVariant("0000180a-0000-1000-8000-00805f9b34fb")},
		},
		// BlueZ reports UUIDs lowercased, but matching stays
		// case-insensitive.
		device + "/service0002": {
			serviceIface: {"UUID": dbus.MakeVariant("08590F7E-DB05-467E-8757-72F6FAEB13D5")},
		},
		"/org/bluez/hci0/dev_00_11_22_33_44_55/service0001": {
			serviceIface: {"UUID": dbus.MakeVariant(serviceUUID)},
		},
	}

	path, ok := findService(objects, device, serviceUUID)
	if !ok {
		t.Fatal("findService found nothing")
	}
	if path != device+"/service0002" {
		t.Errorf("service path = %s, want %s", path, device+"/service0002")
	}

	if _, ok := findService(objects, device, "ffffffff-0000-0000-0000-000000000000"); ok {
		t.Error("findService matched an absent service")
	}
}

func TestFindCharacteristics(t *testing.T) {
	service := dbus.ObjectPath("/org/bluez/hci0/dev_AA/service0002")
	objects := managedObjects{
		service + "/char0003": {
			charIface: {"UUID": dbus.MakeVariant("08590F7E-DB05-467E-8757-72F6FAEB1306")},
		},
		service + "/char0005": {
			charIface: {"UUID": dbus.MakeVariant("08590f7e-db05-467e-8757-72f6faeb13f5")},
		},
		// Descriptors share the path prefix but not the interface.
		service + "/char0003/desc0004": {
			"org.bluez.GattDescriptor1": {"UUID": dbus.MakeVariant("00002902-0000-1000-8000-00805f9b34fb")},
		},
		"/org/bluez/hci0/dev_AA/service0009/char0001": {
			charIface: {"UUID": dbus.MakeVariant("0000ffff-0000-1000-8000-00805f9b34fb")},
		},
	}

	chars := findCharacteristics(objects, service)
	if len(chars) != 2 {
		t.Fatalf("got %d characteristics, want 2: %v", len(chars), chars)
	}
	if chars["08590f7e-db05-467e-8757-72f6faeb1306"] != service+"/char0003" {
		t.Errorf("system tx path = %s", chars["08590f7e-db05-467e-8757-72f6faeb1306"])
	}
	if chars["08590f7e-db05-467e-8757-72f6faeb13f5"] != service+"/char0005" {
		t.Errorf("system rx path = %s", chars["08590f7e-db05-467e-8757-72f6faeb13f5"])
	}
}

func TestNotificationValue(t *testing.T) {
	path := dbus.ObjectPath("/org/bluez/hci0/dev_AA/service0002/char0003")
	payload := []byte{0xAA, 0x55, 0xA4}
	good := &dbus.Signal{
		Path: path,
		Name: propsChangedSignal,
		Body: []interface{}{
			charIface,
			map[string]dbus.Variant{"Value": dbus.MakeVariant(payload)},
			[]string{},
		},
	}

	value, ok := notificationValue(good, path)
	if !ok {
		t.Fatal("notificationValue rejected a valid signal")
	}
	if !bytes.Equal(value, []byte{0xAA, 0x55, 0xA4}) {
		t.Errorf("value = % X", value)
	}

	// The extracted value must not alias the signal body.
	payload[0] = 0x00
	if !bytes.Equal(value, []byte{0xAA, 0x55, 0xA4}) {
		t.Errorf("value changed with the signal body: % X", value)
	}

	cases := []struct {
		name string
		sig  *dbus.Signal
	}{
		{"Nil", nil},
		{"WrongPath", &dbus.Signal{Path: "/other", Name: propsChangedSignal, Body: good.Body}},
		{"WrongMember", &dbus.Signal{Path: path, Name: "org.freedesktop.DBus.NameAcquired", Body: good.Body}},
		{"WrongInterface", &dbus.Signal{Path: path, Name: propsChangedSignal, Body: []interface{}{
			deviceIface,
			map[string]dbus.Variant{"Value": dbus.MakeVariant([]byte{1})},
			[]string{},
		}}},
		{"NoValue", &dbus.Signal{Path: path, Name: propsChangedSignal, Body: []interface{}{
			charIface,
			map[string]dbus.Variant{"Notifying": dbus.MakeVariant(true)},
			[]string{},
		}}},
		{"ShortBody", &dbus.Signal{Path: path, Name: propsChangedSignal, Body: []interface{}{charIface}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := notificationValue(tc.sig, path); ok {
				t.Error("notificationValue accepted the signal")
			}
		})
	}
}

func TestWritePayload(t *testing.T) {
	cases := []struct {
		mtu  int
		want int
	}{
		{0, 244},
		{3, 244},
		{23, 20},
		{247, 244},
		{515, 512},
	}
	for _, tc := range cases {
		if got := writePayload(tc.mtu); got != tc.want {
			t.Errorf("writePayload(%d) = %d, want %d", tc.mtu, got, tc.want)
		}
	}
}
