package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "liftlog"

	// DefaultRefreshBuffer triggers a proactive refresh before a token would
	// expire mid-request, avoiding a guaranteed-401 round trip.
	DefaultRefreshBuffer = 5 * time.Minute
)

// Credentials holds the token pair and its expiry.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // epoch milliseconds
}

// Expired reports whether the access token is unusable: no credentials, no
// expiry recorded, or expiring within the buffer.
func (c *Credentials) Expired(buffer time.Duration) bool {
	if c == nil || c.AccessToken == "" || c.ExpiresAt == 0 {
		return true
	}
	return time.Now().Add(buffer).UnixMilli() >= c.ExpiresAt
}

// Refreshable reports whether a refresh token is available. Without one,
// expiry forces a full re-login.
func (c *Credentials) Refreshable() bool {
	return c != nil && c.RefreshToken != ""
}

// StoreError indicates a credential storage failure.
type StoreError struct {
	Operation string // "load", "save", "delete"
	Origin    string
	Cause     error
}

func (e *StoreError) Error() string {
	msg := e.Operation + " credentials"
	if e.Origin != "" {
		msg += " for " + e.Origin
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Store handles credential storage, preferring the system keychain with a
// locked JSON-file fallback.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

// NewStore creates a credential store.
func NewStore(fallbackDir string) *Store {
	// Skip keyring for tests or when explicitly disabled
	if os.Getenv("LIFTLOG_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	// Test if keyring is available
	testKey := "liftlog::test"
	err := keyring.Set(serviceName, testKey, "test")
	if err == nil {
		_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credentials.json"))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

// NewFileStore creates a store that always uses the file backend.
// Tests use this to stay deterministic without a system keyring.
func NewFileStore(dir string) *Store {
	return &Store{useKeyring: false, fallbackDir: dir}
}

// key returns the keyring key for an origin.
func key(origin string) string {
	return fmt.Sprintf("liftlog::%s", origin)
}

// Load retrieves credentials for the given origin.
func (s *Store) Load(origin string) (*Credentials, error) {
	if s.useKeyring {
		return s.loadFromKeyring(origin)
	}
	return s.loadFromFile(origin)
}

// Save stores credentials for the given origin.
func (s *Store) Save(origin string, creds *Credentials) error {
	var err error
	if s.useKeyring {
		err = s.saveToKeyring(origin, creds)
	} else {
		err = s.saveToFile(origin, creds)
	}
	if err != nil {
		return &StoreError{Operation: "save", Origin: origin, Cause: err}
	}
	return nil
}

// Delete removes credentials for the given origin. Best-effort: a missing
// entry is not an error.
func (s *Store) Delete(origin string) error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, key(origin))
		if err != nil && err != keyring.ErrNotFound {
			return &StoreError{Operation: "delete", Origin: origin, Cause: err}
		}
		return nil
	}
	if err := s.deleteFile(origin); err != nil {
		return &StoreError{Operation: "delete", Origin: origin, Cause: err}
	}
	return nil
}

// Keyring methods

func (s *Store) loadFromKeyring(origin string) (*Credentials, error) {
	data, err := keyring.Get(serviceName, key(origin))
	if err != nil {
		return nil, fmt.Errorf("credentials not found: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &creds, nil
}

func (s *Store) saveToKeyring(origin string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, key(origin), string(data))
}

// File fallback methods. Concurrent CLI invocations share credentials.json,
// so reads and writes take a cross-process flock first.

const lockTimeout = 100 * time.Millisecond

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.fallbackDir, ".credentials.lock")
}

// acquireLock obtains an exclusive lock on the credentials file. Fail-open:
// returns nil without error when the lock cannot be acquired in time, so a
// crashed holder never hangs the CLI.
func (s *Store) acquireLock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return nil, err
	}

	fl := flock.New(s.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

func releaseLock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

func (s *Store) loadAllFromFile() (map[string]*Credentials, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, err
	}

	var all map[string]*Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) saveAllToFile(all map[string]*Credentials) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Unix: rename atomically replaces the destination.
	// Windows: rename fails when destination exists.
	destPath := s.credentialsPath()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) loadFromFile(origin string) (*Credentials, error) {
	fl, err := s.acquireLock()
	if err != nil {
		return nil, err
	}
	defer releaseLock(fl)

	all, err := s.loadAllFromFile()
	if err != nil {
		return nil, err
	}

	creds, ok := all[origin]
	if !ok {
		return nil, fmt.Errorf("credentials not found for %s", origin)
	}
	return creds, nil
}

func (s *Store) saveToFile(origin string, creds *Credentials) error {
	fl, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer releaseLock(fl)

	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}

	all[origin] = creds
	return s.saveAllToFile(all)
}

func (s *Store) deleteFile(origin string) error {
	fl, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer releaseLock(fl)

	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}

	delete(all, origin)
	return s.saveAllToFile(all)
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}
