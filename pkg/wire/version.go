package wire

import (
	"fmt"
	"io"
)

// Version is a four-byte firmware version: major, minor, build, beta.
type Version struct {
	Major uint8
	Minor uint8
	Build uint8
	Beta  uint8
}

// String formats the version the way the device console displays it.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-b%d", v.Major, v.Minor, v.Build, v.Beta)
}

// Encode returns the four version bytes in order.
func (v Version) Encode() ([]byte, error) {
	return []byte{v.Major, v.Minor, v.Build, v.Beta}, nil
}

// Decode reads four version bytes from r.
func (v *Version) Decode(r io.Reader) error {
	var buf [4]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return err
	}
	v.Major, v.Minor, v.Build, v.Beta = buf[0], buf[1], buf[2], buf[3]
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Encoder = Version{}
	_ Decoder = (*Version)(nil)
)
