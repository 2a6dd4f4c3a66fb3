package wire

import (
	"bytes"
)

// ScanFrame extracts one complete host-bound frame from buf. Bytes
// before the magic sequence are noise (line garbage, partial frames
// from a previous session) and are discarded; their count is reported.
//
// A frame is the magic sequence, a command ID byte, a variable-length
// size, and that many payload bytes. When buf does not yet hold a
// complete frame, ok is false and rest holds the trimmed buffer to
// accumulate further reads into.
func ScanFrame(buf []byte) (frame, rest []byte, discarded int, ok bool) {
	idx := bytes.Index(buf, HostBoundMagic[:])
	if idx < 0 {
		// A trailing first magic byte may be the start of the next
		// frame; everything before it is noise.
		if n := len(buf); n > 0 && buf[n-1] == HostBoundMagic[0] {
			return nil, buf[n-1:], n - 1, false
		}
		return nil, nil, len(buf), false
	}
	discarded = idx
	buf = buf[idx:]

	if len(buf) < len(HostBoundMagic)+1 {
		return nil, buf, discarded, false
	}

	var size VarU16
	tail := buf[len(HostBoundMagic)+1:]
	r := bytes.NewReader(tail)
	if err := size.Decode(r); err != nil {
		// Only truncation is possible on a stream.
		return nil, buf, discarded, false
	}
	header := len(HostBoundMagic) + 1 + (len(tail) - r.Len())

	total := header + int(size.Value())
	if len(buf) < total {
		return nil, buf, discarded, false
	}
	return buf[:total], buf[total:], discarded, true
}
