package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestBoundedStringEncode(t *testing.T) {
	tests := []struct {
		name string
		str  string
		max  int
		want []byte
	}{
		{name: "empty", str: "", max: 4, want: []byte{0x00}},
		{name: "short", str: "abc", max: 8, want: []byte{'a', 'b', 'c', 0x00}},
		{name: "exactly max", str: "abcd", max: 4, want: []byte{'a', 'b', 'c', 'd', 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBoundedString(tt.str, tt.max)
			if err != nil {
				t.Fatalf("NewBoundedString(%q, %d) failed: %v", tt.str, tt.max, err)
			}

			got, err := s.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = % X, want % X", tt.str, got, tt.want)
			}
		})
	}
}

func TestBoundedStringTooLong(t *testing.T) {
	if _, err := NewBoundedString("abcde", 4); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("NewBoundedString = %v, want ErrStringTooLong", err)
	}
}

func TestBoundedStringDecode(t *testing.T) {
	s, err := DecodeBoundedString(bytes.NewReader([]byte{'h', 'i', 0x00, 'x'}), 8)
	if err != nil {
		t.Fatalf("DecodeBoundedString failed: %v", err)
	}
	if s.String() != "hi" {
		t.Errorf("String() = %q, want %q", s.String(), "hi")
	}
}

func TestBoundedStringDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		max   int
		want  error
	}{
		{name: "no terminator before max", input: []byte{'a', 'b', 'c', 'd', 'e'}, max: 3, want: ErrStringTooLong},
		{name: "eof before terminator", input: []byte{'a', 'b'}, max: 8, want: ErrTruncated},
		{name: "empty input", input: nil, max: 8, want: ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBoundedString(bytes.NewReader(tt.input), tt.max)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBoundedString = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFixedStringEncode(t *testing.T) {
	tests := []struct {
		name string
		str  string
		size int
		want []byte
	}{
		{name: "padded", str: "ab", size: 4, want: []byte{'a', 'b', 0x00, 0x00}},
		{name: "exactly size", str: "abcd", size: 4, want: []byte{'a', 'b', 'c', 'd'}},
		{name: "empty", str: "", size: 2, want: []byte{0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFixedString(tt.str, tt.size)
			if err != nil {
				t.Fatalf("NewFixedString(%q, %d) failed: %v", tt.str, tt.size, err)
			}

			got, err := s.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = % X, want % X", tt.str, got, tt.want)
			}
		})
	}
}

func TestFixedStringTooLong(t *testing.T) {
	if _, err := NewFixedString("abcde", 4); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("NewFixedString = %v, want ErrStringTooLong", err)
	}
}

func TestFixedStringDecode(t *testing.T) {
	s, err := DecodeFixedString(bytes.NewReader([]byte{'o', 'k', 0x00, 0x00}), 4)
	if err != nil {
		t.Fatalf("DecodeFixedString failed: %v", err)
	}
	if s.String() != "ok" {
		t.Errorf("String() = %q, want %q", s.String(), "ok")
	}

	if _, err := DecodeFixedString(bytes.NewReader([]byte{'o', 'k'}), 4); !errors.Is(err, ErrTruncated) {
		t.Errorf("short input = %v, want ErrTruncated", err)
	}
}

func TestTerminatedFixedStringEncode(t *testing.T) {
	s, err := NewTerminatedFixedString("run", 4)
	if err != nil {
		t.Fatalf("NewTerminatedFixedString failed: %v", err)
	}

	got, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{'r', 'u', 'n', 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
	if len(got) != s.Size()+1 {
		t.Errorf("encoded length = %d, want %d", len(got), s.Size()+1)
	}
}

func TestTerminatedFixedStringFullWidth(t *testing.T) {
	// A string occupying the whole field still gets its terminator.
	s, err := NewTerminatedFixedString("abcd", 4)
	if err != nil {
		t.Fatalf("NewTerminatedFixedString failed: %v", err)
	}

	got, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{'a', 'b', 'c', 'd', 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
}

func TestTerminatedFixedStringDecode(t *testing.T) {
	s, err := DecodeTerminatedFixedString(bytes.NewReader([]byte{'g', 'o', 0x00, 0x00, 0x00}), 4)
	if err != nil {
		t.Fatalf("DecodeTerminatedFixedString failed: %v", err)
	}
	if s.String() != "go" {
		t.Errorf("String() = %q, want %q", s.String(), "go")
	}

	_, err = DecodeTerminatedFixedString(bytes.NewReader([]byte{'a', 'b', 'c', 'd', 'e'}), 4)
	if !errors.Is(err, ErrMissingTerminator) {
		t.Errorf("unterminated input = %v, want ErrMissingTerminator", err)
	}
}
