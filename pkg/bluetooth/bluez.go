package bluetooth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/devices"
)

const (
	bluezBus     = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"
	serviceIface = "org.bluez.GattService1"
	charIface    = "org.bluez.GattCharacteristic1"

	propsIface         = "org.freedesktop.DBus.Properties"
	propsChangedSignal = propsIface + ".PropertiesChanged"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
)

// managedObjects is the BlueZ object tree as returned by
// GetManagedObjects: object path to interface name to property bag.
type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// BlueZ accesses a peripheral's GATT characteristics through the BlueZ
// daemon on the system D-Bus. It binds to a peripheral the platform
// has already connected; it performs no scanning or OS pairing.
type BlueZ struct {
	conn    *dbus.Conn
	device  dbus.ObjectPath
	address string
	chars   map[string]dbus.ObjectPath
	mtu     int

	mu     sync.Mutex
	stops  []func() error
	closed bool
}

var _ GATT = (*BlueZ)(nil)

// NewBlueZ binds to the connected peripheral with the given Bluetooth
// address. It fails with connection.ErrNoBluetoothAdapter when the host
// has no adapter and connection.ErrInvalidDevice when the peripheral
// does not expose the expected service.
func NewBlueZ(ctx context.Context, address string) (*BlueZ, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to system bus: %w", connection.ErrBluetooth, err)
	}

	manifest, err := devices.Load()
	if err != nil {
		return nil, err
	}

	objects, err := getManagedObjects(ctx, conn)
	if err != nil {
		return nil, err
	}

	adapter, ok := findAdapter(objects)
	if !ok {
		return nil, connection.ErrNoBluetoothAdapter
	}

	device := devicePathFor(adapter, address)
	deviceProps, ok := objects[device][deviceIface]
	if !ok {
		return nil, fmt.Errorf("%w: peripheral %s not known to %s", connection.ErrBluetooth, address, adapter)
	}
	if !boolProp(deviceProps, "Connected") {
		return nil, fmt.Errorf("%w: peripheral %s is not connected", connection.ErrBluetooth, address)
	}

	service, ok := findService(objects, device, manifest.Bluetooth.Service)
	if !ok {
		return nil, fmt.Errorf("%w: peripheral %s does not expose the service %s",
			connection.ErrInvalidDevice, address, manifest.Bluetooth.Service)
	}

	b := &BlueZ{
		conn:    conn,
		device:  device,
		address: address,
		chars:   findCharacteristics(objects, service),
	}
	b.mtu = b.readMTU(ctx)
	return b, nil
}

// Address returns the peripheral's Bluetooth address.
func (b *BlueZ) Address() string { return b.address }

// Characteristics lists the resolved characteristic UUIDs, lowercased
// and sorted.
func (b *BlueZ) Characteristics() []string {
	out := make([]string, 0, len(b.chars))
	for id := range b.chars {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MTU reports the ATT MTU BlueZ negotiated, or 0 when the daemon does
// not expose it.
func (b *BlueZ) MTU() int { return b.mtu }

// Read returns the characteristic's current value.
func (b *BlueZ) Read(ctx context.Context, char string) ([]byte, error) {
	path, err := b.path(char)
	if err != nil {
		return nil, err
	}
	var value []byte
	options := map[string]interface{}{}
	call := b.conn.Object(bluezBus, path).CallWithContext(ctx, charIface+".ReadValue", 0, options)
	if err := call.Store(&value); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", connection.ErrBluetooth, char, err)
	}
	return value, nil
}

// Write writes p to the characteristic in a single ATT operation.
func (b *BlueZ) Write(ctx context.Context, char string, p []byte) error {
	path, err := b.path(char)
	if err != nil {
		return err
	}
	options := map[string]interface{}{}
	call := b.conn.Object(bluezBus, path).CallWithContext(ctx, charIface+".WriteValue", 0, p, options)
	if call.Err != nil {
		return fmt.Errorf("%w: writing %s: %w", connection.ErrBluetooth, char, call.Err)
	}
	return nil
}

// Subscribe enables notifications on the characteristic and returns a
// channel of notification values. When the consumer stalls, the oldest
// pending value is dropped; the frame scanner above resynchronizes on
// the next frame boundary.
func (b *BlueZ) Subscribe(ctx context.Context, char string) (<-chan []byte, func() error, error) {
	path, err := b.path(char)
	if err != nil {
		return nil, nil, err
	}

	match := []dbus.MatchOption{
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(path),
	}
	if err := b.conn.AddMatchSignal(match...); err != nil {
		return nil, nil, fmt.Errorf("%w: matching notifications for %s: %w", connection.ErrBluetooth, char, err)
	}

	signals := make(chan *dbus.Signal, 16)
	b.conn.Signal(signals)

	call := b.conn.Object(bluezBus, path).CallWithContext(ctx, charIface+".StartNotify", 0)
	if call.Err != nil {
		b.conn.RemoveSignal(signals)
		b.conn.RemoveMatchSignal(match...)
		return nil, nil, fmt.Errorf("%w: enabling notifications for %s: %w", connection.ErrBluetooth, char, call.Err)
	}

	values := make(chan []byte, 16)
	quit := make(chan struct{})
	go func() {
		defer close(values)
		for {
			select {
			case <-quit:
				return
			case sig := <-signals:
				value, ok := notificationValue(sig, path)
				if !ok {
					continue
				}
				select {
				case values <- value:
				default:
					select {
					case <-values:
					default:
					}
					select {
					case values <- value:
					default:
					}
				}
			}
		}
	}()

	var stopOnce sync.Once
	stop := func() error {
		var err error
		stopOnce.Do(func() {
			call := b.conn.Object(bluezBus, path).Call(charIface+".StopNotify", 0)
			b.conn.RemoveSignal(signals)
			b.conn.RemoveMatchSignal(match...)
			close(quit)
			if call.Err != nil {
				err = fmt.Errorf("%w: disabling notifications for %s: %w", connection.ErrBluetooth, char, call.Err)
			}
		})
		return err
	}

	b.mu.Lock()
	b.stops = append(b.stops, stop)
	b.mu.Unlock()

	return values, stop, nil
}

// Close stops active subscriptions. The system bus handle is shared
// process-wide and stays open.
func (b *BlueZ) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	stops := b.stops
	b.stops = nil
	b.mu.Unlock()

	var err error
	for _, stop := range stops {
		if e := stop(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (b *BlueZ) path(char string) (dbus.ObjectPath, error) {
	path, ok := b.chars[strings.ToLower(char)]
	if !ok {
		return "", fmt.Errorf("%w: %s", connection.ErrMissingCharacteristic, char)
	}
	return path, nil
}

// readMTU asks BlueZ for the negotiated ATT MTU. Older daemons do not
// expose the property; 0 tells the caller to assume the default.
func (b *BlueZ) readMTU(ctx context.Context) int {
	for _, path := range b.chars {
		var v dbus.Variant
		call := b.conn.Object(bluezBus, path).CallWithContext(ctx, propsIface+".Get", 0, charIface, "MTU")
		if err := call.Store(&v); err != nil {
			continue
		}
		if mtu, ok := v.Value().(uint16); ok && mtu > 0 {
			return int(mtu)
		}
	}
	return 0
}

func getManagedObjects(ctx context.Context, conn *dbus.Conn) (managedObjects, error) {
	var objects managedObjects
	call := conn.Object(bluezBus, "/").CallWithContext(ctx, objectManagerIface+".GetManagedObjects", 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("%w: listing bluez objects: %w", connection.ErrBluetooth, err)
	}
	return objects, nil
}

// findAdapter picks the first adapter in path order, so hci0 wins on a
// multi-adapter host.
func findAdapter(objects managedObjects) (dbus.ObjectPath, bool) {
	var adapters []dbus.ObjectPath
	for path, ifaces := range objects {
		if _, ok := ifaces[adapterIface]; ok {
			adapters = append(adapters, path)
		}
	}
	if len(adapters) == 0 {
		return "", false
	}
	sort.Slice(adapters, func(i, j int) bool { return adapters[i] < adapters[j] })
	return adapters[0], true
}

// devicePathFor builds the BlueZ object path of a peripheral:
// <adapter>/dev_AA_BB_CC_DD_EE_FF.
func devicePathFor(adapter dbus.ObjectPath, address string) dbus.ObjectPath {
	id := strings.ToUpper(strings.ReplaceAll(address, ":", "_"))
	return adapter + dbus.ObjectPath("/dev_"+id)
}

// findService locates the GATT service with the given UUID under the
// device.
func findService(objects managedObjects, device dbus.ObjectPath, uuid string) (dbus.ObjectPath, bool) {
	prefix := string(device) + "/service"
	for path, ifaces := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}
		props, ok := ifaces[serviceIface]
		if !ok {
			continue
		}
		if strings.EqualFold(stringProp(props, "UUID"), uuid) {
			return path, true
		}
	}
	return "", false
}

// findCharacteristics maps the UUIDs under the service to their object
// paths, lowercased.
func findCharacteristics(objects managedObjects, service dbus.ObjectPath) map[string]dbus.ObjectPath {
	prefix := string(service) + "/char"
	chars := make(map[string]dbus.ObjectPath)
	for path, ifaces := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}
		props, ok := ifaces[charIface]
		if !ok {
			continue
		}
		if id := stringProp(props, "UUID"); id != "" {
			chars[strings.ToLower(id)] = path
		}
	}
	return chars
}

// notificationValue extracts the Value payload from a PropertiesChanged
// signal for the given characteristic, if that is what the signal is.
func notificationValue(sig *dbus.Signal, path dbus.ObjectPath) ([]byte, bool) {
	if sig == nil || sig.Path != path || sig.Name != propsChangedSignal {
		return nil, false
	}
	if len(sig.Body) < 2 {
		return nil, false
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != charIface {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, false
	}
	v, ok := changed["Value"]
	if !ok {
		return nil, false
	}
	value, ok := v.Value().([]byte)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

func boolProp(props map[string]dbus.Variant, name string) bool {
	v, ok := props[name]
	if !ok {
		return false
	}
	b, _ := v.Value().(bool)
	return b
}

func stringProp(props map[string]dbus.Variant, name string) string {
	v, ok := props[name]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}
