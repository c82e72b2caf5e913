package service

import (
	"context"
	"sort"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/storage"
)

// In-memory fakes standing in for the gorm repositories.

type fakeMsgStore struct {
	created         []*entity.Message
	direct          map[string][]*entity.Message
	support         map[string][]*entity.Message
	group           map[string][]*entity.Message
	directAggs      []*entity.PartnerAggregate
	supportAgg      *entity.PartnerAggregate
	poolAggs        []*entity.PartnerAggregate
	groupAggs       []*entity.PartnerAggregate
	supportCount    int64
	markDirectCalls []string
	markClientCalls []string
	markPoolCalls   []string
	unread          map[string]int64
	err             error
}

func newFakeMsgStore() *fakeMsgStore {
	return &fakeMsgStore{
		direct:  make(map[string][]*entity.Message),
		support: make(map[string][]*entity.Message),
		group:   make(map[string][]*entity.Message),
		unread:  make(map[string]int64),
	}
}

func (f *fakeMsgStore) Create(ctx context.Context, msg *entity.Message) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMsgStore) GetById(ctx context.Context, id string) (*entity.Message, error) {
	for _, m := range f.created {
		if m.Id == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMsgStore) DirectHistory(ctx context.Context, a, b string) ([]*entity.Message, error) {
	return f.direct[a+"|"+b], f.err
}

func (f *fakeMsgStore) SupportHistory(ctx context.Context, clientId string) ([]*entity.Message, error) {
	return f.support[clientId], f.err
}

func (f *fakeMsgStore) GroupHistory(ctx context.Context, groupId string) ([]*entity.Message, error) {
	return f.group[groupId], f.err
}

func (f *fakeMsgStore) MarkDirectRead(ctx context.Context, ownerId, counterpartId string) (int64, error) {
	f.markDirectCalls = append(f.markDirectCalls, ownerId+"|"+counterpartId)
	key := "direct:" + ownerId + "|" + counterpartId
	n := f.unread[key]
	f.unread[key] = 0
	return n, f.err
}

func (f *fakeMsgStore) MarkSupportReadForClient(ctx context.Context, clientId string) (int64, error) {
	f.markClientCalls = append(f.markClientCalls, clientId)
	key := "support-client:" + clientId
	n := f.unread[key]
	f.unread[key] = 0
	return n, f.err
}

func (f *fakeMsgStore) MarkSupportReadForPool(ctx context.Context, clientId string) (int64, error) {
	f.markPoolCalls = append(f.markPoolCalls, clientId)
	key := "support-pool:" + clientId
	n := f.unread[key]
	f.unread[key] = 0
	return n, f.err
}

func (f *fakeMsgStore) CountSupportForClient(ctx context.Context, clientId string) (int64, error) {
	return f.supportCount, f.err
}

func (f *fakeMsgStore) DirectAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error) {
	return f.directAggs, f.err
}

func (f *fakeMsgStore) SupportAggregateForClient(ctx context.Context, clientId string) (*entity.PartnerAggregate, error) {
	return f.supportAgg, f.err
}

func (f *fakeMsgStore) SupportAggregatesForPool(ctx context.Context) ([]*entity.PartnerAggregate, error) {
	return f.poolAggs, f.err
}

func (f *fakeMsgStore) GroupAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error) {
	return f.groupAggs, f.err
}

type fakeIdentityStore struct {
	identities map[string]*entity.Identity
}

func newFakeIdentityStore(identities ...*entity.Identity) *fakeIdentityStore {
	f := &fakeIdentityStore{identities: make(map[string]*entity.Identity)}
	for _, ident := range identities {
		f.identities[ident.Id] = ident
	}
	return f
}

func (f *fakeIdentityStore) GetById(ctx context.Context, id string) (*entity.Identity, error) {
	return f.identities[id], nil
}

func (f *fakeIdentityStore) GetByIds(ctx context.Context, ids []string) ([]*entity.Identity, error) {
	var out []*entity.Identity
	for _, id := range ids {
		if ident, ok := f.identities[id]; ok {
			out = append(out, ident)
		}
	}
	return out, nil
}

func (f *fakeIdentityStore) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	for _, ident := range f.identities {
		if ident.Role == role {
			count++
		}
	}
	return count, nil
}

type fakeGroupStore struct {
	groups     map[string]*entity.ChatGroup
	members    map[string][]string
	watermarks []string
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		groups:  make(map[string]*entity.ChatGroup),
		members: make(map[string][]string),
	}
}

func (f *fakeGroupStore) CreateWithMembers(ctx context.Context, group *entity.ChatGroup, memberIds []string) error {
	f.groups[group.Id] = group
	f.members[group.Id] = memberIds
	return nil
}

func (f *fakeGroupStore) GetById(ctx context.Context, id string) (*entity.ChatGroup, error) {
	return f.groups[id], nil
}

func (f *fakeGroupStore) GetMemberIds(ctx context.Context, groupId string) ([]string, error) {
	return f.members[groupId], nil
}

func (f *fakeGroupStore) IsMember(ctx context.Context, groupId, identityId string) (bool, error) {
	for _, id := range f.members[groupId] {
		if id == identityId {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupStore) GetUserGroups(ctx context.Context, identityId string) ([]*entity.ChatGroup, error) {
	var out []*entity.ChatGroup
	for groupId, memberIds := range f.members {
		for _, id := range memberIds {
			if id == identityId {
				out = append(out, f.groups[groupId])
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (f *fakeGroupStore) TouchWatermark(ctx context.Context, groupId, identityId string) error {
	f.watermarks = append(f.watermarks, groupId+"|"+identityId)
	return nil
}

type fakeBlobStore struct {
	blobs    map[string][]byte
	types    map[string]string
	putCalls int
	putErr   error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		blobs: make(map[string][]byte),
		types: make(map[string]string),
	}
}

func (f *fakeBlobStore) Put(ctx context.Context, path, contentType string, data []byte) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.blobs[path] = data
	f.types[path] = contentType
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	data, ok := f.blobs[path]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return data, f.types[path], nil
}

func (f *fakeBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := f.blobs[path]
	return ok, nil
}

type fakePusher struct {
	pushed []*entity.Message
}

func (f *fakePusher) AsyncPushMessage(msg *entity.Message) {
	f.pushed = append(f.pushed, msg)
}
