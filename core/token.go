package core

import "fmt"

// EncodeToken packs a component and an in-section byte offset into a
// 64-bit resume token: the component's encoding occupies the high 32 bits,
// the offset the low 32 bits.
func EncodeToken(c Component, offset uint32) uint64 {
	return uint64(c.Encode())<<32 | uint64(offset)
}

// DecodeToken splits a resume token back into its component and in-section
// byte offset.
func DecodeToken(token uint64) (Component, uint32, error) {
	encoded := uint32(token >> 32)
	offset := uint32(token)

	c, err := DecodeComponent(encoded)
	if err != nil {
		return Component{}, 0, fmt.Errorf("decode token %d: %w", token, err)
	}

	return c, offset, nil
}
