// Package secret is the encryption adapter for the sensitive partition of
// the dashboard cache.
//
// It derives a passphrase key from the current session token (see
// TokenSource and DeriveKey) and seals JSON blobs with a Cipher. Envelopes
// carry a fixed prefix (CiphertextPrefix) so callers can tell ciphertext
// from legacy plaintext before attempting decryption.
//
// Because the key is tied to the session token, data sealed under one
// session cannot be opened after the token changes.
package secret
