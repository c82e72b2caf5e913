package session

import (
	"context"
	"time"

	"github.com/mindwell/messaging/sdk"
)

// HandleRealtime dispatches one realtime event into session state.
//
// Messages for the open conversation append to the history (duplicates
// by id are dropped, so a message that already arrived through the send
// confirmation is not shown twice) and are read immediately. Messages
// for closed conversations bump the local unread counter and notify.
// Every event schedules a counter reconciliation.
func (s *Session) HandleRealtime(event *sdk.PushEvent) {
	if event == nil || event.Type != sdk.EventTypeMessage || event.Message == nil {
		return
	}
	msg := event.Message
	key := s.conversationKeyOf(msg)

	s.mu.Lock()
	if key == s.openKey && s.openKey != "" {
		if pos, dup := s.index[msg.Id]; dup {
			// Already present: refresh in place (read state may differ).
			s.history[pos] = &Message{MessageInfo: msg}
			s.mu.Unlock()
			s.reconciler.Schedule()
			return
		}
		s.index[msg.Id] = len(s.history)
		s.history = append(s.history, &Message{MessageInfo: msg})
		s.counters[key] = 0
		s.mu.Unlock()

		if msg.SenderId != s.identityId {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_, _ = s.store.MarkRead(ctx, key)
			}()
		}
		if msg.Attachment != nil && msg.Attachment.URL == "" {
			go s.enrichAttachment(key, msg.Id, msg.Attachment.Path)
		}
	} else {
		if msg.SenderId != s.identityId {
			s.counters[key]++
			if s.notifier != nil {
				notifier := s.notifier
				s.mu.Unlock()
				notifier.Notify(key, msg)
				s.reconciler.Schedule()
				return
			}
		}
		s.mu.Unlock()
	}

	s.reconciler.Schedule()
}

// enrichAttachment fetches a signed URL for a realtime-delivered
// attachment and patches it into the history, provided the same
// conversation is still open and the entry still present.
func (s *Session) enrichAttachment(key, messageId, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	signed, err := s.store.SignAttachmentURL(ctx, path)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openKey != key {
		return
	}
	pos, ok := s.index[messageId]
	if !ok {
		return
	}
	if att := s.history[pos].Attachment; att != nil {
		att.URL = signed
	}
}
