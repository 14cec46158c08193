/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-git/go-git/v5"
)

// pgpSigner produces armored detached OpenPGP signatures for commits.
type pgpSigner struct {
	entity *openpgp.Entity
}

var _ git.Signer = (*pgpSigner)(nil)

// NewPGPSigner reads an armored OpenPGP private key and returns a signer for
// WithSigner. The first key in the ring is used and must not be
// passphrase protected.
func NewPGPSigner(armoredKey io.Reader) (git.Signer, error) {
	ring, err := openpgp.ReadArmoredKeyRing(armoredKey)
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	if len(ring) == 0 {
		return nil, errors.New("signing key ring is empty")
	}
	entity := ring[0]
	if entity.PrivateKey == nil {
		return nil, errors.New("signing key has no private key")
	}
	if entity.PrivateKey.Encrypted {
		return nil, errors.New("signing key is passphrase protected")
	}
	return &pgpSigner{entity: entity}, nil
}

// Sign implements git.Signer.
func (s *pgpSigner) Sign(message io.Reader) ([]byte, error) {
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, s.entity, message, nil); err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return sig.Bytes(), nil
}
