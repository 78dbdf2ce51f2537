// Package audit derives content identifiers for evaluation results so a
// stored or exported verdict can be checked against its recomputation.
package audit

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CIDv1 (raw codec, sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("audit: hash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Digest marshals v to JSON and returns the string form of its CID.
// encoding/json emits struct fields in declaration order and map keys
// sorted, so equal values always produce equal digests.
func Digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("audit: marshal: %w", err)
	}
	c, err := Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// Verify reports whether digest is the CID of v.
func Verify(v any, digest string) (bool, error) {
	want, err := cid.Decode(digest)
	if err != nil {
		return false, fmt.Errorf("audit: decode %q: %w", digest, err)
	}
	got, err := Digest(v)
	if err != nil {
		return false, err
	}
	return got == want.String(), nil
}
