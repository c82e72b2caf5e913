package service

import (
	"context"
	"strings"

	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/repository"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/idgen"
)

// GroupService handles chat group business logic. Groups are fixed at
// creation: membership never changes and groups are never deleted.
type GroupService struct {
	groupRepo    GroupStore
	identityRepo IdentityStore
}

// NewGroupService creates a new GroupService
func NewGroupService(repos *repository.Repositories) *GroupService {
	return &GroupService{
		groupRepo:    repos.Group,
		identityRepo: repos.Identity,
	}
}

// CreateGroupRequest represents create group request
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids"`
}

// CreateGroup creates a group owned by the caller. The owner is always a
// member; at least one other member is required.
func (s *GroupService) CreateGroup(ctx context.Context, ownerId string, req *CreateGroupRequest) (*entity.GroupInfo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errcode.ErrEmptyGroup
	}

	memberIds := make([]string, 0, len(req.MemberIds)+1)
	seen := map[string]bool{ownerId: true}
	memberIds = append(memberIds, ownerId)
	for _, id := range req.MemberIds {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		memberIds = append(memberIds, id)
	}
	if len(memberIds) < 2 {
		return nil, errcode.ErrEmptyGroup
	}

	members, err := s.identityRepo.GetByIds(ctx, memberIds)
	if err != nil {
		log.CtxError(ctx, "load group members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if len(members) != len(memberIds) {
		return nil, errcode.ErrIdentityUnknown
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate group id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	group := &entity.ChatGroup{
		Id:      id,
		Name:    name,
		OwnerId: ownerId,
	}
	if err := s.groupRepo.CreateWithMembers(ctx, group, memberIds); err != nil {
		log.CtxError(ctx, "create group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "group created: id=%s, owner_id=%s, members=%d", group.Id, ownerId, len(memberIds))
	return s.toGroupInfo(group, members), nil
}

// GetGroup returns a group with its resolved member list. Only members may
// look inside.
func (s *GroupService) GetGroup(ctx context.Context, viewerId, groupId string) (*entity.GroupInfo, error) {
	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "load group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	ok, err := s.groupRepo.IsMember(ctx, groupId, viewerId)
	if err != nil {
		log.CtxError(ctx, "check group membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !ok {
		return nil, errcode.ErrNotGroupMember
	}

	memberIds, err := s.groupRepo.GetMemberIds(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "load group member ids failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	members, err := s.identityRepo.GetByIds(ctx, memberIds)
	if err != nil {
		log.CtxError(ctx, "load group members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	return s.toGroupInfo(group, members), nil
}

// ListGroups returns all groups the caller belongs to, without member
// lists.
func (s *GroupService) ListGroups(ctx context.Context, viewerId string) ([]*entity.GroupInfo, error) {
	groups, err := s.groupRepo.GetUserGroups(ctx, viewerId)
	if err != nil {
		log.CtxError(ctx, "load user groups failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.GroupInfo, 0, len(groups))
	for _, g := range groups {
		infos = append(infos, s.toGroupInfo(g, nil))
	}
	return infos, nil
}

func (s *GroupService) toGroupInfo(group *entity.ChatGroup, members []*entity.Identity) *entity.GroupInfo {
	info := &entity.GroupInfo{
		Id:        group.Id,
		Name:      group.Name,
		OwnerId:   group.OwnerId,
		CreatedAt: group.CreatedAt,
	}
	for _, m := range members {
		info.Members = append(info.Members, m.ToIdentityInfo())
	}
	return info
}
