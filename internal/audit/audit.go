package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Operation names.
const (
	OpIdentity      = "identity"
	OpUpload        = "upload"
	OpDownload      = "download"
	OpDelete        = "delete"
	OpShare         = "share"
	OpShareDownload = "share-download"
	OpRevoke        = "revoke"
	OpTrial         = "trial"
	OpSweep         = "sweep"
)

// Entry represents a single audit log entry. It never carries filenames in
// the clear, passphrases or key material.
type Entry struct {
	Timestamp string `json:"ts"`                // RFC3339 with microseconds.
	Account   string `json:"account,omitempty"` // Account performing the action.
	Operation string `json:"op"`

	// Optional fields depending on operation.
	FileIDs      []string `json:"file_ids,omitempty"`
	ShareID      string   `json:"share_id,omitempty"`
	Origin       string   `json:"origin,omitempty"`        // For trial shares.
	Bytes        int64    `json:"bytes,omitempty"`         // Plaintext bytes moved.
	Downloads    int      `json:"downloads,omitempty"`     // Download count after share-download.
	RemovedCount int      `json:"removed_count,omitempty"` // For sweep.
	Created      bool     `json:"created,omitempty"`       // For identity.
}

// Log appends entries to a JSON Lines file. A nil *Log discards entries.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New returns a Log writing to path. An empty path discards entries.
func New(path string) *Log {
	if path == "" {
		return nil
	}
	return &Log{path: path, now: time.Now}
}

// Path returns the log file path.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends an entry. Failures are swallowed; operations never fail
// because the audit trail could not be written.
func (l *Log) Record(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = l.now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Filter returns the entries for which keep reports true.
func Filter(entries []Entry, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
