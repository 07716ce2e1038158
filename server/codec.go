package server

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborCodec adapts CBOR encoding to the connect Codec interface, so the
// machine service speaks application/cbor instead of protobuf. Canonical
// encoding keeps the wire form deterministic.
type cborCodec struct {
	enc cbor.EncMode
}

func newCBORCodec() *cborCodec {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	return &cborCodec{enc: em}
}

func (c *cborCodec) Name() string {
	return "cbor"
}

func (c *cborCodec) Marshal(message any) ([]byte, error) {
	return c.enc.Marshal(message)
}

func (c *cborCodec) Unmarshal(data []byte, message any) error {
	if err := cbor.Unmarshal(data, message); err != nil {
		return fmt.Errorf("server: unmarshal message: %w", err)
	}
	return nil
}
