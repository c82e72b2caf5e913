package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/config"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/storage"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
)

// AttachmentService owns attachment blobs and the signed URLs that grant
// time-limited read access to them. Signed URLs are view-time decoration:
// they are minted on every load and never stored alongside the message.
type AttachmentService struct {
	blobs      storage.BlobStore
	signSecret []byte
	publicBase string
	ttl        time.Duration
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(cfg *config.StorageConfig, blobs storage.BlobStore) *AttachmentService {
	return &AttachmentService{
		blobs:      blobs,
		signSecret: []byte(cfg.SignSecret),
		publicBase: cfg.PublicBaseURL,
		ttl:        cfg.SignTTL,
	}
}

// blobClaims carries the blob path inside a signed access token.
type blobClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Upload stores an attachment blob and returns its descriptor. The size
// ceiling is enforced before any byte reaches the store.
func (s *AttachmentService) Upload(ctx context.Context, ownerId, conversationKey, name, mimeType string, data []byte) (*entity.AttachmentInfo, error) {
	if name == "" || len(data) == 0 {
		return nil, errcode.ErrInvalidParam
	}
	if int64(len(data)) > constant.MaxAttachmentBytes {
		return nil, errcode.ErrPayloadTooLarge
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	scope := conversationKey
	if scope == "" {
		scope = ownerId
	}
	blobPath := fmt.Sprintf("%s/%s%s", scope, uuid.New().String(), path.Ext(name))

	if err := s.blobs.Put(ctx, blobPath, mimeType, data); err != nil {
		log.CtxError(ctx, "store attachment blob failed: path=%s, err=%v", blobPath, err)
		return nil, errcode.ErrUpload.Wrap(err)
	}

	log.CtxInfo(ctx, "attachment stored: owner_id=%s, path=%s, size=%d", ownerId, blobPath, len(data))
	return &entity.AttachmentInfo{
		Path:     blobPath,
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

// SignURL mints a time-limited access URL for a blob path.
func (s *AttachmentService) SignURL(blobPath string) (string, error) {
	now := time.Now()
	claims := &blobClaims{
		Path: blobPath,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signSecret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/attachments?token=%s", s.publicBase, url.QueryEscape(token)), nil
}

// VerifyToken validates an access token and returns the blob path it
// grants.
func (s *AttachmentService) VerifyToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &blobClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errcode.ErrSignatureInvalid
	}
	claims, ok := parsed.Claims.(*blobClaims)
	if !ok || claims.Path == "" {
		return "", errcode.ErrSignatureInvalid
	}
	return claims.Path, nil
}

// Fetch reads a blob for serving.
func (s *AttachmentService) Fetch(ctx context.Context, blobPath string) ([]byte, string, error) {
	data, contentType, err := s.blobs.Get(ctx, blobPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", errcode.ErrBlobNotFound
		}
		log.CtxError(ctx, "read attachment blob failed: path=%s, err=%v", blobPath, err)
		return nil, "", errcode.ErrInternalServer
	}
	return data, contentType, nil
}

// DecorateMessages signs access URLs onto every attachment in a message
// batch. Signing failures leave the URL empty rather than failing the
// load.
func (s *AttachmentService) DecorateMessages(ctx context.Context, infos []*entity.MessageInfo) {
	for _, info := range infos {
		if info.Attachment == nil {
			continue
		}
		signed, err := s.SignURL(info.Attachment.Path)
		if err != nil {
			log.CtxError(ctx, "sign attachment url failed: path=%s, err=%v", info.Attachment.Path, err)
			continue
		}
		info.Attachment.URL = signed
	}
}
