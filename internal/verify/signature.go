package verify

import (
	"fmt"

	"github.com/jedisct1/go-minisign"
)

// Minisign verifies a minisign signature over content. sigPath points at the
// downloaded .minisig file and pubKeyPath at the trusted public key. For
// release artifacts the signed content is the checksum companion file, so a
// valid signature extends trust to the artifact via its digest.
func Minisign(content []byte, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign public key: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}
