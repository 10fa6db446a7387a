package sig

import (
	"crypto"
	"fmt"

	"github.com/axent-pl/jwtmint/common"
)

func Hash(data []byte, hashAlg crypto.Hash) (digest []byte, _ error) {
	if !hashAlg.Available() {
		return nil, fmt.Errorf("%w: hash %v not available", common.ErrUnsupportedAlgorithm, hashAlg)
	}
	h := hashAlg.New()
	_, err := h.Write(data)
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
