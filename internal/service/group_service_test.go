package service

import (
	"context"
	"testing"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroupService() (*GroupService, *fakeGroupStore) {
	groups := newFakeGroupStore()
	svc := &GroupService{
		groupRepo:    groups,
		identityRepo: newTestIdentities(),
	}
	return svc, groups
}

func TestCreateGroupIncludesOwner(t *testing.T) {
	svc, groups := newTestGroupService()

	info, err := svc.CreateGroup(context.Background(), "spec-1", &CreateGroupRequest{
		Name:      "  Care team  ",
		MemberIds: []string{"client-1", "client-1", "spec-1", ""},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, info.Id)
	assert.Equal(t, "Care team", info.Name)
	assert.Equal(t, "spec-1", info.OwnerId)
	require.Len(t, info.Members, 2)

	assert.Equal(t, []string{"spec-1", "client-1"}, groups.members[info.Id])
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _ := newTestGroupService()

	_, err := svc.CreateGroup(context.Background(), "spec-1", &CreateGroupRequest{
		Name:      "   ",
		MemberIds: []string{"client-1"},
	})
	assert.ErrorIs(t, err, errcode.ErrEmptyGroup)

	// Owner alone is not a group.
	_, err = svc.CreateGroup(context.Background(), "spec-1", &CreateGroupRequest{
		Name:      "Solo",
		MemberIds: []string{"spec-1"},
	})
	assert.ErrorIs(t, err, errcode.ErrEmptyGroup)

	_, err = svc.CreateGroup(context.Background(), "spec-1", &CreateGroupRequest{
		Name:      "Ghosts",
		MemberIds: []string{"nobody"},
	})
	assert.ErrorIs(t, err, errcode.ErrIdentityUnknown)
}

func TestGetGroupMembersOnly(t *testing.T) {
	svc, groups := newTestGroupService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1", Name: "Care team", OwnerId: "spec-1"}
	groups.members["g1"] = []string{"spec-1", "client-1"}

	info, err := svc.GetGroup(context.Background(), "client-1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "Care team", info.Name)
	require.Len(t, info.Members, 2)
	assert.Equal(t, "Dr. Levi", info.Members[0].DisplayName)

	_, err = svc.GetGroup(context.Background(), "client-2", "g1")
	assert.ErrorIs(t, err, errcode.ErrNotGroupMember)

	_, err = svc.GetGroup(context.Background(), "client-1", "missing")
	assert.ErrorIs(t, err, errcode.ErrGroupNotFound)
}

func TestListGroupsOmitsMembers(t *testing.T) {
	svc, groups := newTestGroupService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1", Name: "Care team"}
	groups.members["g1"] = []string{"client-1", "spec-1"}
	groups.groups["g2"] = &entity.ChatGroup{Id: "g2", Name: "Intake"}
	groups.members["g2"] = []string{"client-1", "admin-1"}

	infos, err := svc.ListGroups(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "g1", infos[0].Id)
	assert.Empty(t, infos[0].Members)
}
