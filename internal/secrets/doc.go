// Package secrets provides the client-side cryptography of kahu.
//
// Nothing in this package touches the network or disk. It turns plaintext and
// passphrases into envelopes that are safe to hand to object storage and the
// record store, and back.
//
// # Encryption Architecture
//
// kahu uses a hybrid encryption scheme for owner files:
//
//  1. A random 256-bit content key encrypts the file bytes with AES-GCM
//  2. The same key encrypts the filename under a separate 12-byte nonce
//  3. The owner's RSA-OAEP (SHA-256, 3072-bit) public key wraps the content key
//
// Share links use a second scheme: the plaintext is re-encrypted under a key
// derived from the share passphrase with PBKDF2 and an empty salt. The
// recipient re-derives that key, so it is never stored anywhere.
//
// # Key Management
//
// Identity keypairs are exported as SPKI (public) and PKCS8 (private). The
// private key is only persisted wrapped: AES-GCM with a 16-byte IV under a
// PBKDF2 key salted with the account ID.
//
// # Access Gate
//
// HashPassphrase and VerifyPassphrase implement a bcrypt gate (cost 12) in
// front of share downloads. The gate hash is never used to derive keys.
//
// # Encoding
//
// All binary fields cross storage boundaries as base64. Encrypted filenames
// use the URL-safe unpadded alphabet because they become object keys.
package secrets
