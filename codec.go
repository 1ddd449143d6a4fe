package calcdoc

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Codec is the reversible transform that carries the runtime source through the host
// document. DecoderJS returns a JavaScript function expression mapping an encoded
// string back to the original UTF-8 text; the bootstrap calls it once.
type Codec interface {
	Name() string
	Encode(src []byte) []byte
	Decode(enc []byte) ([]byte, error)
	DecoderJS() string
}

// HexCodec encodes every byte as two lowercase hex digits.
type HexCodec struct{}

func (HexCodec) Name() string { return "hex" }

func (HexCodec) Encode(src []byte) []byte {
	dst := make([]byte, hex.EncodedLen(len(src)))
	hex.Encode(dst, src)
	return dst
}

func (HexCodec) Decode(enc []byte) ([]byte, error) {
	dst := make([]byte, hex.DecodedLen(len(enc)))
	n, err := hex.Decode(dst, enc)
	if err != nil {
		return nil, fmt.Errorf("hex decode: %w", err)
	}
	return dst[:n], nil
}

func (HexCodec) DecoderJS() string {
	return `function(v){return v.length%2?"":decodeURIComponent(v.replace(/[0-9a-fA-F]{2}/g,"%$&"))}`
}

// Base64Codec uses standard padded base64.
type Base64Codec struct{}

func (Base64Codec) Name() string { return "base64" }

func (Base64Codec) Encode(src []byte) []byte {
	dst := make([]byte, base64.StdEncoding.EncodedLen(len(src)))
	base64.StdEncoding.Encode(dst, src)
	return dst
}

func (Base64Codec) Decode(enc []byte) ([]byte, error) {
	dst := make([]byte, base64.StdEncoding.DecodedLen(len(enc)))
	n, err := base64.StdEncoding.Decode(dst, enc)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return dst[:n], nil
}

func (Base64Codec) DecoderJS() string {
	return `function(v){var b=atob(v),p="";for(var i=0;i<b.length;i++){p+="%"+("0"+b.charCodeAt(i).toString(16)).slice(-2)}return decodeURIComponent(p)}`
}

// CodecByName returns the codec registered under name ("" selects hex).
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "hex":
		return HexCodec{}, nil
	case "base64":
		return Base64Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

var (
	_ Codec = HexCodec{}
	_ Codec = Base64Codec{}
)
