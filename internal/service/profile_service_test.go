package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/querycache"
)

type fakeProfiles struct {
	mu        sync.Mutex
	listCalls []int
	getCalls  []int64
	users     map[int64]domain.UserRow
	listErr   error
}

func (f *fakeProfiles) ListUsers(_ context.Context, page, size int) (domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, page)
	if f.listErr != nil {
		return domain.Page{}, f.listErr
	}
	return domain.Page{Total: 1, Rows: []domain.UserRow{{ID: int64(page * 100), Username: "user"}}}, nil
}

func (f *fakeProfiles) GetUser(_ context.Context, id int64) (domain.UserRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	row, ok := f.users[id]
	if !ok {
		return domain.UserRow{}, &client.RequestError{Status: 404, Message: "no such user"}
	}
	return row, nil
}

func TestListUsersCachesPages(t *testing.T) {
	cache := querycache.New()
	profiles := &fakeProfiles{}
	svc := NewProfileService(nil, cache, profiles, 0)

	page, err := svc.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 100, page.Rows[0].ID)

	_, err = svc.ListUsers(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, []int{1}, profiles.listCalls)

	_, ok := cache.Get(UsersPageKey(1, 20))
	require.True(t, ok)
}

func TestGetProfile(t *testing.T) {
	cache := querycache.New()
	profiles := &fakeProfiles{users: map[int64]domain.UserRow{7: {ID: 7, Email: "kim@example.com"}}}
	svc := NewProfileService(nil, cache, profiles, 20)

	row, err := svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", row.Email)

	_, err = svc.GetProfile(context.Background(), 8)
	msg, ok := client.ServerMessage(err)
	require.True(t, ok)
	require.Equal(t, "no such user", msg)
}

func TestRefreshReloadsInvalidatedPages(t *testing.T) {
	cache := querycache.New()
	profiles := &fakeProfiles{users: map[int64]domain.UserRow{7: {ID: 7}}}
	svc := NewProfileService(nil, cache, profiles, 20)

	_, err := svc.ListUsers(context.Background(), 3, 20)
	require.NoError(t, err)
	_, err = svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)

	cache.Invalidate(querycache.TagUsers)
	cache.Invalidate(querycache.TagProfile)
	require.NoError(t, svc.Refresh(context.Background()))

	require.Equal(t, []int{3, 3}, profiles.listCalls)
	require.Equal(t, []int64{7, 7}, profiles.getCalls)
}

func TestRefreshContinuesPastFailingUsersPages(t *testing.T) {
	cache := querycache.New()
	profiles := &fakeProfiles{users: map[int64]domain.UserRow{7: {ID: 7, Email: "old@example.com"}}}
	svc := NewProfileService(nil, cache, profiles, 20)

	_, err := svc.ListUsers(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = svc.GetProfile(context.Background(), 7)
	require.NoError(t, err)

	down := errors.New("profile service down")
	profiles.mu.Lock()
	profiles.listErr = down
	profiles.users[7] = domain.UserRow{ID: 7, Email: "new@example.com"}
	profiles.mu.Unlock()

	cache.Invalidate(querycache.TagUsers)
	cache.Invalidate(querycache.TagProfile)
	require.ErrorIs(t, svc.Refresh(context.Background()), down)

	require.Equal(t, []int64{7, 7}, profiles.getCalls)
	page, ok := cache.Get(ProfileKey(7))
	require.True(t, ok)
	require.Equal(t, "new@example.com", page.Rows[0].Email)
}

func TestParsePageKey(t *testing.T) {
	page, size := parsePageKey(UsersPageKey(4, 50).Name)
	require.Equal(t, 4, page)
	require.Equal(t, 50, size)
}
