// Package records is the relational metadata store of kahu, backed by gorm
// and a pure-Go sqlite driver.
//
// It holds file and share metadata, the remote copy of each account's wrapped
// identity, passphrase setup status, and the rate records that back the daily
// upload and share limits. Ciphertext never passes through this package.
package records
