// Package mailbox manages per-session inbox directories on disk.
//
// Each launched session gets a directory under <root>/mailbox/<session-id>
// where other components deposit JSON messages for the shell to pick up.
// When a session terminates or is evicted, its inbox is deleted
// best-effort by the registry's cleanup hook.
package mailbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/shared/id"
)

// Store manages session inbox directories rooted at a base path.
type Store struct {
	root string
	log  *logging.Logger
}

// Message is one deposited inbox entry.
type Message struct {
	ID      string                 `json:"id"`
	From    string                 `json:"from,omitempty"`
	Subject string                 `json:"subject,omitempty"`
	Body    map[string]interface{} `json:"body,omitempty"`
}

// NewStore creates a mailbox store under root.
func NewStore(root string, log *logging.Logger) *Store {
	return &Store{root: root, log: log.Named("mailbox")}
}

// Deposit writes a message into a session's inbox, creating the inbox
// directory on first use. The message ID is assigned here.
func (s *Store) Deposit(sessionID string, msg Message) (string, error) {
	dir := s.inboxDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create inbox: %w", err)
	}

	msg.ID = id.NewMessageID()
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	path := filepath.Join(dir, msg.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	return msg.ID, nil
}

// Messages returns all messages currently in a session's inbox, in
// deposit order: message IDs are monotonic ULIDs, so sorting by ID
// sorts by creation time. A missing inbox yields an empty slice, not
// an error.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	dir := s.inboxDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var msgs []Message
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			s.log.Warn("skipping unreadable message",
				zap.String("session_id", sessionID),
				zap.String("file", e.Name()),
				zap.Error(err))
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

// CleanupSession removes a session's inbox directory. Registered as the
// registry's termination cleanup hook; failures are the caller's to log.
func (s *Store) CleanupSession(sessionID string) error {
	dir := s.inboxDir(sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove inbox: %w", err)
	}
	return nil
}

func (s *Store) inboxDir(sessionID string) string {
	return filepath.Join(s.root, "mailbox", sessionID)
}
