// Package modhex provides hex and modhex encodings.
package modhex

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Alphabet is the modhex alphabet, indexed by nibble value.
const Alphabet = "cbdefghijklnrtuv"

// HexAlphabet is the lowercase hexadecimal alphabet, indexed by nibble value.
const HexAlphabet = "0123456789abcdef"

// Decoding errors.
var (
	ErrOddLength   = errors.New("modhex: odd length input")
	ErrInvalidChar = errors.New("modhex: invalid character")
)

// decodeTable maps an ASCII byte to its nibble value, or 0xff.
var decodeTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 0xff
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = byte(i)
		t[Alphabet[i]-'a'+'A'] = byte(i)
	}
	return t
}()

// Encode returns the modhex encoding of b.
func Encode(b []byte) string {
	out := make([]byte, 2*len(b))
	for i, v := range b {
		out[2*i] = Alphabet[v>>4]
		out[2*i+1] = Alphabet[v&0x0f]
	}
	return string(out)
}

// Decode parses a modhex string. Upper case input is accepted.
func Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi := decodeTable[s[2*i]]
		lo := decodeTable[s[2*i+1]]
		if hi == 0xff || lo == 0xff {
			return nil, ErrInvalidChar
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

// Valid reports whether s is a well-formed modhex string.
func Valid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// EncodeHex returns the lowercase hexadecimal encoding of b.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex parses a hexadecimal string. Upper case input is accepted.
func DecodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, ErrInvalidChar
	}
	return b, nil
}
