package session

import (
	"context"
	"strings"
	"time"

	"github.com/mindwell/messaging/pkg/idgen"
	"github.com/mindwell/messaging/sdk"
)

// Send performs an optimistic send of the current draft into the open
// conversation:
//
//  1. the draft is validated locally; invalid drafts never reach the
//     network
//  2. a temporary entry appears in the history immediately and the draft
//     clears
//  3. the staged file (if any) uploads, then the message sends
//  4. on success the temporary entry is replaced in place by the server
//     message; on failure it is removed and the draft restored
//
// The returned entry is the optimistic one; observers see the
// replacement through History.
func (s *Session) Send(ctx context.Context) (*Message, error) {
	s.mu.Lock()

	if s.openKey == "" {
		s.mu.Unlock()
		return nil, sdk.ErrInvalidParam
	}
	text := strings.TrimSpace(s.draftText)
	file := s.draftFile
	if text == "" && file == nil {
		s.mu.Unlock()
		return nil, sdk.ErrValidation
	}

	key := s.openKey
	tempId := idgen.TempID()
	temp := &Message{
		MessageInfo: &sdk.MessageInfo{
			Id:        tempId,
			SenderId:  s.identityId,
			Content:   text,
			CreatedAt: time.Now().UnixMilli(),
		},
		Pending: true,
	}
	if file != nil {
		temp.Attachment = &sdk.AttachmentInfo{
			Name:     file.Name,
			MimeType: file.MimeType,
			Size:     int64(len(file.Data)),
		}
	}

	s.index[tempId] = len(s.history)
	s.history = append(s.history, temp)
	s.draftText = ""
	s.draftFile = nil
	s.mu.Unlock()

	var attachment *sdk.AttachmentInfo
	if file != nil {
		uploaded, err := s.store.UploadAttachment(ctx, key, file.Name, file.MimeType, file.Data)
		if err != nil {
			s.rollback(tempId, text, file)
			return nil, err
		}
		attachment = uploaded
	}

	req := &sdk.SendMessageRequest{
		RecipientId: key,
		Content:     text,
		Attachment:  attachment,
	}
	sent, err := s.store.SendMessage(ctx, req)
	if err != nil {
		s.rollback(tempId, text, file)
		return nil, err
	}

	s.confirm(tempId, sent)
	s.reconciler.Schedule()
	return temp, nil
}

// confirm replaces the optimistic entry with the server message,
// preserving its position. When realtime delivery won the race and the
// server message is already present, the optimistic entry is dropped
// instead.
func (s *Session) confirm(tempId string, sent *sdk.MessageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[tempId]
	if !ok {
		return
	}

	if _, dup := s.index[sent.Id]; dup {
		s.removeLocked(pos)
		delete(s.index, tempId)
		return
	}

	s.history[pos] = &Message{MessageInfo: sent}
	delete(s.index, tempId)
	s.index[sent.Id] = pos
}

// rollback removes the optimistic entry and restores the draft so
// nothing typed is lost.
func (s *Session) rollback(tempId, text string, file *PendingFile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.index[tempId]; ok {
		s.removeLocked(pos)
		delete(s.index, tempId)
	}

	// Restore only when the user has not started a new draft meanwhile.
	if s.draftText == "" {
		s.draftText = text
	}
	if s.draftFile == nil {
		s.draftFile = file
	}
}

// removeLocked deletes a history entry and reindexes the tail.
func (s *Session) removeLocked(pos int) {
	s.history = append(s.history[:pos], s.history[pos+1:]...)
	for i := pos; i < len(s.history); i++ {
		s.index[s.history[i].Id] = i
	}
}
