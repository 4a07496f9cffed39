package crypto

import (
	"encoding/json"
	"fmt"

	"github.com/mlevkov/go-note-sync/models"
)

// CanonicalPayload computes the deterministic serialization of a signable
// value that signatures are produced over: the JSON encoding of the value
// with its signature collection removed.
//
// Determinism relies on encoding/json emitting struct fields in declaration
// order and map keys sorted, so signer and verifier always see identical
// bytes. The signature collection is restored before returning, even on a
// marshalling failure.
func CanonicalPayload(s models.Signable) ([]byte, error) {
	signatures := s.GetSignatures()
	s.SetSignatures(nil)
	defer s.SetSignatures(signatures)

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error marshalling canonical payload: %w", err)
	}

	return payload, nil
}
