package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/repository"
	"github.com/mindwell/messaging/internal/storage"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/idgen"
)

// MessageService handles message sending, history loads and read receipts.
type MessageService struct {
	msgRepo      MessageStore
	identityRepo IdentityStore
	groupRepo    GroupStore
	blobs        storage.BlobStore
	pusher       MessagePusher
}

// NewMessageService creates a new MessageService
func NewMessageService(repos *repository.Repositories, blobs storage.BlobStore) *MessageService {
	return &MessageService{
		msgRepo:      repos.Message,
		identityRepo: repos.Identity,
		groupRepo:    repos.Group,
		blobs:        blobs,
	}
}

// SetPusher sets the message pusher
func (s *MessageService) SetPusher(pusher MessagePusher) {
	s.pusher = pusher
}

// SendMessageRequest represents send message request. RecipientId is a
// conversation key: an identity id, the support sentinel, or a group key.
type SendMessageRequest struct {
	RecipientId string                 `json:"recipient_id,omitempty"`
	GroupId     string                 `json:"group_id,omitempty"`
	Content     string                 `json:"content"`
	Attachment  *entity.AttachmentInfo `json:"attachment,omitempty"`
}

// SendMessage validates, routes, persists and pushes a message.
func (s *MessageService) SendMessage(ctx context.Context, senderId string, req *SendMessageRequest) (*entity.Message, error) {
	sender, err := s.identityRepo.GetById(ctx, senderId)
	if err != nil {
		log.CtxError(ctx, "load sender failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if sender == nil {
		return nil, errcode.ErrIdentityUnknown
	}

	// Group keys may arrive through the recipient field.
	if constant.IsGroupKey(req.RecipientId) {
		req.GroupId = constant.GroupIdFromKey(req.RecipientId)
		req.RecipientId = ""
	}

	msg := &entity.Message{
		SenderId: senderId,
		Content:  req.Content,
	}
	msg.SetAttachment(req.Attachment)

	if !msg.IsValid() {
		return nil, errcode.ErrValidation
	}
	if msg.HasAttachment() {
		if msg.AttachmentSize > constant.MaxAttachmentBytes {
			return nil, errcode.ErrPayloadTooLarge
		}
		ok, err := s.blobs.Exists(ctx, msg.AttachmentPath)
		if err != nil {
			log.CtxError(ctx, "probe attachment blob failed: path=%s, err=%v", msg.AttachmentPath, err)
			return nil, errcode.ErrUpload
		}
		if !ok {
			// The referenced blob never finished uploading.
			return nil, errcode.ErrUpload
		}
	}

	if err := s.route(ctx, sender, req, msg); err != nil {
		return nil, err
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate message id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	msg.Id = id

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		log.CtxError(ctx, "persist message failed: %v", err)
		return nil, errcode.ErrSendFailed
	}

	if s.pusher != nil {
		s.pusher.AsyncPushMessage(msg)
	}

	log.CtxInfo(ctx, "message sent: id=%s, sender_id=%s, recipient_id=%s, group_id=%s, is_support=%v",
		msg.Id, msg.SenderId, msg.RecipientId, msg.GroupId, msg.IsSupport)
	return msg, nil
}

// route fills in the addressing columns and enforces who may talk to whom.
func (s *MessageService) route(ctx context.Context, sender *entity.Identity, req *SendMessageRequest, msg *entity.Message) error {
	if req.GroupId != "" {
		ok, err := s.groupRepo.IsMember(ctx, req.GroupId, sender.Id)
		if err != nil {
			log.CtxError(ctx, "check group membership failed: %v", err)
			return errcode.ErrInternalServer
		}
		if !ok {
			return errcode.ErrNotGroupMember
		}
		msg.GroupId = req.GroupId
		return nil
	}

	if req.RecipientId == constant.SupportCounterpart {
		// Pool-addressed: any admin may pick it up.
		if sender.IsAdmin() {
			return errcode.ErrInvalidParam
		}
		msg.IsSupport = true
		return nil
	}

	if req.RecipientId == "" || req.RecipientId == sender.Id {
		return errcode.ErrInvalidParam
	}

	recipient, err := s.identityRepo.GetById(ctx, req.RecipientId)
	if err != nil {
		log.CtxError(ctx, "load recipient failed: %v", err)
		return errcode.ErrInternalServer
	}
	if recipient == nil {
		return errcode.ErrIdentityUnknown
	}
	if recipient.IsAdmin() {
		// The support team is only reachable through the shared pool.
		return errcode.ErrNotAuthorized
	}

	msg.RecipientId = recipient.Id
	if sender.IsAdmin() && recipient.Role == constant.RoleClient {
		// Admin reply lands in the client's merged support thread.
		msg.IsSupport = true
	}
	return nil
}

// LoadHistory returns the full thread behind a conversation key, oldest
// first. The key is interpreted from the viewer's perspective: clients see
// the merged support thread under the support sentinel, admins address the
// same thread by the client's id.
func (s *MessageService) LoadHistory(ctx context.Context, viewerId, counterpartKey string) ([]*entity.Message, error) {
	viewer, err := s.identityRepo.GetById(ctx, viewerId)
	if err != nil {
		log.CtxError(ctx, "load viewer failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}
	if viewer == nil {
		return nil, errcode.ErrIdentityUnknown
	}

	if constant.IsGroupKey(counterpartKey) {
		groupId := constant.GroupIdFromKey(counterpartKey)
		ok, err := s.groupRepo.IsMember(ctx, groupId, viewerId)
		if err != nil {
			log.CtxError(ctx, "check group membership failed: %v", err)
			return nil, errcode.ErrLoad.Wrap(err)
		}
		if !ok {
			return nil, errcode.ErrNotGroupMember
		}
		messages, err := s.msgRepo.GroupHistory(ctx, groupId)
		if err != nil {
			log.CtxError(ctx, "load group history failed: %v", err)
			return nil, errcode.ErrLoad.Wrap(err)
		}
		return messages, nil
	}

	if counterpartKey == constant.SupportCounterpart {
		if viewer.IsAdmin() {
			return nil, errcode.ErrInvalidParam
		}
		messages, err := s.msgRepo.SupportHistory(ctx, viewerId)
		if err != nil {
			log.CtxError(ctx, "load support history failed: %v", err)
			return nil, errcode.ErrLoad.Wrap(err)
		}
		return messages, nil
	}

	counterpart, err := s.identityRepo.GetById(ctx, counterpartKey)
	if err != nil {
		log.CtxError(ctx, "load counterpart failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}
	if counterpart == nil {
		return nil, errcode.ErrNotFound
	}
	if counterpart.IsAdmin() {
		return nil, errcode.ErrNotAuthorized
	}

	if viewer.IsAdmin() && counterpart.Role == constant.RoleClient {
		messages, err := s.msgRepo.SupportHistory(ctx, counterpart.Id)
		if err != nil {
			log.CtxError(ctx, "load support history failed: %v", err)
			return nil, errcode.ErrLoad.Wrap(err)
		}
		return messages, nil
	}

	messages, err := s.msgRepo.DirectHistory(ctx, viewerId, counterpartKey)
	if err != nil {
		log.CtxError(ctx, "load direct history failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}
	return messages, nil
}

// MarkRead flips the viewer's unread state for one conversation key.
// Idempotent: re-marking an already read thread affects nothing.
func (s *MessageService) MarkRead(ctx context.Context, viewerId, counterpartKey string) (int64, error) {
	viewer, err := s.identityRepo.GetById(ctx, viewerId)
	if err != nil {
		log.CtxError(ctx, "load viewer failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	if viewer == nil {
		return 0, errcode.ErrIdentityUnknown
	}

	if constant.IsGroupKey(counterpartKey) {
		groupId := constant.GroupIdFromKey(counterpartKey)
		ok, err := s.groupRepo.IsMember(ctx, groupId, viewerId)
		if err != nil {
			log.CtxError(ctx, "check group membership failed: %v", err)
			return 0, errcode.ErrInternalServer
		}
		if !ok {
			return 0, errcode.ErrNotGroupMember
		}
		if err := s.groupRepo.TouchWatermark(ctx, groupId, viewerId); err != nil {
			log.CtxError(ctx, "touch group watermark failed: %v", err)
			return 0, errcode.ErrInternalServer
		}
		return 0, nil
	}

	if counterpartKey == constant.SupportCounterpart {
		if viewer.IsAdmin() {
			return 0, errcode.ErrInvalidParam
		}
		n, err := s.msgRepo.MarkSupportReadForClient(ctx, viewerId)
		if err != nil {
			log.CtxError(ctx, "mark support read failed: %v", err)
			return 0, errcode.ErrInternalServer
		}
		return n, nil
	}

	if viewer.IsAdmin() {
		// Reading on behalf of the pool: the flip is shared by every admin.
		n, err := s.msgRepo.MarkSupportReadForPool(ctx, counterpartKey)
		if err != nil {
			log.CtxError(ctx, "mark pool read failed: %v", err)
			return 0, errcode.ErrInternalServer
		}
		return n, nil
	}

	n, err := s.msgRepo.MarkDirectRead(ctx, viewerId, counterpartKey)
	if err != nil {
		log.CtxError(ctx, "mark direct read failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	return n, nil
}
