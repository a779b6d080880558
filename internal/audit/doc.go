// Package audit keeps a local trail of kahu operations.
//
// Every workflow (upload, download, share, share-download, revoke, delete,
// trial, sweep, identity) appends one JSON object per line to
// $XDG_DATA_HOME/kahu/audit.jsonl. Entries carry IDs, counts and sizes only.
//
// Audit logging is best-effort. If the file cannot be written the operation
// continues without error.
package audit
