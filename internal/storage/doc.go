// Package storage moves ciphertext to and from object storage.
//
// Objects are addressed by encrypted filename: owner files live under
// upload/<name> and share copies under upload/share/<name>. Transfers go
// through pre-signed URLs, so the same code path serves a local MinIO and any
// S3-compatible provider. Memory is an in-process substitute.
package storage
