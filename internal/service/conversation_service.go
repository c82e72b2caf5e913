package service

import (
	"context"
	"sort"

	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/repository"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
)

// ConversationService materializes conversation lists on demand. Nothing
// here is persisted: every listing is derived from the message store and
// keyed by counterpart, so the same counterpart never yields two entries.
type ConversationService struct {
	aggRepo      AggregateStore
	identityRepo IdentityStore
	groupRepo    GroupStore
}

// NewConversationService creates a new ConversationService
func NewConversationService(repos *repository.Repositories) *ConversationService {
	return &ConversationService{
		aggRepo:      repos.Message,
		identityRepo: repos.Identity,
		groupRepo:    repos.Group,
	}
}

// normalizePage clamps caller-supplied paging parameters.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = constant.DefaultPageSize
	}
	if pageSize > constant.MaxPageSize {
		pageSize = constant.MaxPageSize
	}
	return page, pageSize
}

// sortAggregates orders by recency, newest first. Ties break on the
// counterpart key so pagination stays stable across identical timestamps.
func sortAggregates(aggs []*entity.PartnerAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].LastAt != aggs[j].LastAt {
			return aggs[i].LastAt > aggs[j].LastAt
		}
		return aggs[i].CounterpartId < aggs[j].CounterpartId
	})
}

// pageSlice cuts one page out of the sorted aggregate list.
func pageSlice(aggs []*entity.PartnerAggregate, page, pageSize int) ([]*entity.PartnerAggregate, int) {
	total := len(aggs)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start >= total {
		return nil, totalPages
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return aggs[start:end], totalPages
}

// collect gathers the viewer's aggregates according to role. Clients and
// specialists see their direct counterparts; clients additionally get the
// single merged support entry; admins see the shared pool, one entry per
// client regardless of which admin answered last.
func (s *ConversationService) collect(ctx context.Context, viewer *entity.Identity) ([]*entity.PartnerAggregate, error) {
	var aggs []*entity.PartnerAggregate

	switch viewer.Role {
	case constant.RoleAdmin:
		pool, err := s.aggRepo.SupportAggregatesForPool(ctx)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, pool...)
	case constant.RoleClient:
		direct, err := s.aggRepo.DirectAggregates(ctx, viewer.Id)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, direct...)
		support, err := s.aggRepo.SupportAggregateForClient(ctx, viewer.Id)
		if err != nil {
			return nil, err
		}
		if support != nil {
			support.CounterpartId = constant.SupportCounterpart
			aggs = append(aggs, support)
		}
	default:
		direct, err := s.aggRepo.DirectAggregates(ctx, viewer.Id)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, direct...)
	}

	groups, err := s.aggRepo.GroupAggregates(ctx, viewer.Id)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.CounterpartId = constant.GroupKey(g.CounterpartId)
	}
	aggs = append(aggs, groups...)

	sortAggregates(aggs)
	return aggs, nil
}

// hydrate resolves aggregates into presentable conversations: display
// names, avatars and role sub-labels for identities, names for groups, the
// fixed support headline for the merged pool entry.
func (s *ConversationService) hydrate(ctx context.Context, viewer *entity.Identity, aggs []*entity.PartnerAggregate) ([]*entity.Conversation, error) {
	identityIds := make([]string, 0, len(aggs))
	needGroups := false
	for _, agg := range aggs {
		switch {
		case agg.IsGroup:
			needGroups = true
		case agg.IsSupport && !viewer.IsAdmin():
			// Merged pool entry, no identity behind it.
		default:
			identityIds = append(identityIds, agg.CounterpartId)
		}
	}

	identityById := make(map[string]*entity.Identity)
	if len(identityIds) > 0 {
		identities, err := s.identityRepo.GetByIds(ctx, identityIds)
		if err != nil {
			return nil, err
		}
		for _, ident := range identities {
			identityById[ident.Id] = ident
		}
	}

	groupById := make(map[string]*entity.ChatGroup)
	if needGroups {
		groups, err := s.groupRepo.GetUserGroups(ctx, viewer.Id)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			groupById[g.Id] = g
		}
	}

	convs := make([]*entity.Conversation, 0, len(aggs))
	for _, agg := range aggs {
		conv := &entity.Conversation{
			CounterpartId: agg.CounterpartId,
			UnreadCount:   agg.UnreadCount,
			LastActivity:  agg.LastAt,
		}
		if agg.LastMessage != nil {
			conv.LastMessage = agg.LastMessage.ToMessageInfo()
		}

		switch {
		case agg.IsGroup:
			conv.IsGroup = true
			if g, ok := groupById[constant.GroupIdFromKey(agg.CounterpartId)]; ok {
				conv.DisplayName = g.Name
			}
		case agg.IsSupport && !viewer.IsAdmin():
			conv.DisplayName = "Support"
			conv.Role = constant.RoleAdmin
			conv.Headline = constant.RoleHeadline(constant.RoleAdmin)
		default:
			if ident, ok := identityById[agg.CounterpartId]; ok {
				conv.DisplayName = ident.DisplayName
				conv.Avatar = ident.Avatar
				conv.Role = ident.Role
				conv.Headline = ident.SubLabel()
			} else {
				conv.DisplayName = agg.CounterpartId
			}
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// ListConversations returns one page of the viewer's conversation list.
func (s *ConversationService) ListConversations(ctx context.Context, viewerId string, page, pageSize int) (*entity.ConversationPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	viewer, err := s.identityRepo.GetById(ctx, viewerId)
	if err != nil {
		log.CtxError(ctx, "load viewer failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}
	if viewer == nil {
		return nil, errcode.ErrIdentityUnknown
	}

	aggs, err := s.collect(ctx, viewer)
	if err != nil {
		log.CtxError(ctx, "aggregate conversations failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}

	total := int64(len(aggs))
	pageAggs, totalPages := pageSlice(aggs, page, pageSize)

	items, err := s.hydrate(ctx, viewer, pageAggs)
	if err != nil {
		log.CtxError(ctx, "hydrate conversations failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}

	return &entity.ConversationPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
	}, nil
}

// ListForClient returns the client-facing split listing: the merged
// support entry apart from individual specialists and groups, plus the
// flag for offering a fresh support conversation.
func (s *ConversationService) ListForClient(ctx context.Context, clientId string, page, pageSize int) (*entity.ClientConversationList, error) {
	page, pageSize = normalizePage(page, pageSize)

	viewer, err := s.identityRepo.GetById(ctx, clientId)
	if err != nil {
		log.CtxError(ctx, "load viewer failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}
	if viewer == nil {
		return nil, errcode.ErrIdentityUnknown
	}
	if viewer.Role != constant.RoleClient {
		return nil, errcode.ErrNotAuthorized
	}

	aggs, err := s.collect(ctx, viewer)
	if err != nil {
		log.CtxError(ctx, "aggregate conversations failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}

	total := int64(len(aggs))
	pageAggs, totalPages := pageSlice(aggs, page, pageSize)

	items, err := s.hydrate(ctx, viewer, pageAggs)
	if err != nil {
		log.CtxError(ctx, "hydrate conversations failed: %v", err)
		return nil, errcode.ErrLoad.Wrap(err)
	}

	list := &entity.ClientConversationList{
		Support:     []*entity.Conversation{},
		Specialists: []*entity.Conversation{},
		Page:        page,
		TotalPages:  totalPages,
		TotalCount:  total,
	}
	for _, conv := range items {
		switch {
		case conv.IsGroup:
			list.Groups = append(list.Groups, conv)
		case conv.CounterpartId == constant.SupportCounterpart:
			list.Support = append(list.Support, conv)
		default:
			list.Specialists = append(list.Specialists, conv)
		}
	}

	// Offer starting a support conversation only when none exists yet and
	// someone is actually staffing the pool.
	if len(list.Support) == 0 {
		count, err := s.aggRepo.CountSupportForClient(ctx, clientId)
		if err != nil {
			log.CtxError(ctx, "count support history failed: %v", err)
			return nil, errcode.ErrLoad.Wrap(err)
		}
		if count == 0 {
			admins, err := s.identityRepo.CountByRole(ctx, constant.RoleAdmin)
			if err != nil {
				log.CtxError(ctx, "count admins failed: %v", err)
				return nil, errcode.ErrLoad.Wrap(err)
			}
			list.HasNewSupportOption = admins > 0
		}
	}

	return list, nil
}
