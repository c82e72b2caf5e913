// Package session implements the client-side conversation state machine:
// history loading with staleness discipline, optimistic sends with
// rollback, realtime dispatch with deduplication, and debounced unread
// counter reconciliation. It is UI-agnostic; a frontend observes the
// session and renders its state.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindwell/messaging/sdk"
)

// Role names understood by the session.
const (
	RoleClient     = "client"
	RoleSpecialist = "specialist"
	RoleAdmin      = "admin"
)

// DefaultReconcileDelay coalesces reconciliation triggers.
const DefaultReconcileDelay = 2 * time.Second

// Store is the server surface the session needs. *sdk.Client satisfies
// it.
type Store interface {
	SendMessage(ctx context.Context, req *sdk.SendMessageRequest) (*sdk.MessageInfo, error)
	LoadHistory(ctx context.Context, counterpartId string) ([]*sdk.MessageInfo, error)
	MarkRead(ctx context.Context, counterpartId string) (int64, error)
	UploadAttachment(ctx context.Context, counterpartId, filename, mimeType string, data []byte) (*sdk.AttachmentInfo, error)
	SignAttachmentURL(ctx context.Context, path string) (string, error)
	ListConversations(ctx context.Context, page, pageSize int) (*sdk.ConversationPage, error)
	ListClientConversations(ctx context.Context, page, pageSize int) (*sdk.ClientConversationList, error)
}

// Message is one history entry: the wire message plus local send state.
type Message struct {
	*sdk.MessageInfo
	Pending bool
}

// PendingFile is a draft attachment waiting to be sent.
type PendingFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// Session holds the conversation state of one signed-in identity.
type Session struct {
	store      Store
	identityId string
	role       string
	notifier   Notifier
	reconciler *Reconciler

	// loadSeq guards history loads: a response is applied only when no
	// newer load started after it.
	loadSeq atomic.Int64

	mu        sync.Mutex
	openKey   string
	history   []*Message
	index     map[string]int
	draftText string
	draftFile *PendingFile
	counters  map[string]int64
}

// Option configures a Session
type Option func(*Session)

// WithNotifier sets the notifier for messages arriving in closed
// conversations.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithReconcileDelay overrides the reconciliation debounce delay.
func WithReconcileDelay(d time.Duration) Option {
	return func(s *Session) {
		s.reconciler = NewReconciler(d, s.reconcile)
	}
}

// NewSession creates a session for an identity.
func NewSession(store Store, identityId, role string, opts ...Option) *Session {
	s := &Session{
		store:      store,
		identityId: identityId,
		role:       role,
		index:      make(map[string]int),
		counters:   make(map[string]int64),
	}
	s.reconciler = NewReconciler(DefaultReconcileDelay, s.reconcile)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops background work.
func (s *Session) Close() {
	s.reconciler.Stop()
}

// OpenConversation loads a conversation's history and makes it the open
// one. When a newer open supersedes this load before its response lands,
// the response is discarded and sdk.ErrLoad-free callers see no state
// change.
func (s *Session) OpenConversation(ctx context.Context, counterpartKey string) ([]*Message, error) {
	seq := s.loadSeq.Add(1)

	infos, err := s.store.LoadHistory(ctx, counterpartKey)
	if seq != s.loadSeq.Load() {
		// A newer load superseded this one. Drop it either way.
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.openKey = counterpartKey
	s.history = make([]*Message, 0, len(infos))
	s.index = make(map[string]int, len(infos))
	for _, info := range infos {
		s.index[info.Id] = len(s.history)
		s.history = append(s.history, &Message{MessageInfo: info})
	}
	s.counters[counterpartKey] = 0
	history := s.snapshotLocked()
	s.mu.Unlock()

	// Opening reads the thread. Errors here are invisible: the counter
	// reconciliation catches up later.
	go func() {
		markCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = s.store.MarkRead(markCtx, counterpartKey)
	}()
	s.reconciler.Schedule()

	return history, nil
}

// CloseConversation leaves the open conversation.
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openKey = ""
	s.history = nil
	s.index = make(map[string]int)
	s.draftText = ""
	s.draftFile = nil
}

// OpenKey returns the open conversation key, empty when none.
func (s *Session) OpenKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openKey
}

// History returns a snapshot of the open conversation's entries.
func (s *Session) History() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []*Message {
	out := make([]*Message, len(s.history))
	copy(out, s.history)
	return out
}

// SetDraft sets the draft text.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftText = text
}

// Draft returns the current draft text and pending file.
func (s *Session) Draft() (string, *PendingFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftText, s.draftFile
}

// AttachFile stages a file on the draft. Oversized files are rejected
// immediately, before any network traffic.
func (s *Session) AttachFile(name, mimeType string, data []byte) error {
	if name == "" || len(data) == 0 {
		return sdk.ErrInvalidParam
	}
	if int64(len(data)) > sdk.MaxAttachmentBytes {
		return sdk.ErrPayloadTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftFile = &PendingFile{Name: name, MimeType: mimeType, Data: data}
	return nil
}

// ClearAttachment removes the staged file.
func (s *Session) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftFile = nil
}

// Counter returns the unread counter of one conversation key.
func (s *Session) Counter(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key]
}

// Counters returns a snapshot of all unread counters.
func (s *Session) Counters() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// conversationKeyOf derives the conversation key of a message from this
// identity's perspective.
func (s *Session) conversationKeyOf(msg *sdk.MessageInfo) string {
	if msg.GroupId != "" {
		return sdk.GroupKey(msg.GroupId)
	}
	if msg.IsSupport {
		if s.role == RoleAdmin {
			if msg.RecipientId == "" {
				return msg.SenderId
			}
			return msg.RecipientId
		}
		return sdk.SupportCounterpart
	}
	if msg.SenderId == s.identityId {
		return msg.RecipientId
	}
	return msg.SenderId
}

// ErrStale marks a discarded response that was superseded by a newer
// request. Callers treat it as a silent no-op.
var ErrStale = sdk.NewError(2099, "stale response")
