package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/querycache"
)

const DefaultProfileUpdateError = "Could not update profile"

// ProfileReader loads users from the profile service.
type ProfileReader interface {
	ListUsers(ctx context.Context, page, size int) (domain.Page, error)
	GetUser(ctx context.Context, id int64) (domain.UserRow, error)
}

// ProfileService reads and edits user profiles.
type ProfileService struct {
	optimistic *Optimistic
	cache      *querycache.Cache
	profiles   ProfileReader
	pageSize   int
}

// NewProfileService constructs the service.
func NewProfileService(optimistic *Optimistic, cache *querycache.Cache, profiles ProfileReader, pageSize int) *ProfileService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ProfileService{optimistic: optimistic, cache: cache, profiles: profiles, pageSize: pageSize}
}

// UpdateProfile writes the update into every cached copy of the row, then
// sends it to the profile service.
func (s *ProfileService) UpdateProfile(ctx context.Context, rowID int64, update domain.ProfileUpdate) *Pending {
	return s.optimistic.run(ctx, mutation{
		request:        client.MutationRequest{Kind: domain.MutationUpdateProfile, RowID: rowID, Profile: &update},
		tags:           roleTags,
		patch:          applyProfile(rowID, update),
		defaultMessage: DefaultProfileUpdateError,
	})
}

// ListUsers returns a cached page of users, loading it when needed.
func (s *ProfileService) ListUsers(ctx context.Context, page, size int) (domain.Page, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = s.pageSize
	}
	key := UsersPageKey(page, size)
	return s.cache.Query(ctx, key, func(ctx context.Context) (domain.Page, error) {
		return s.profiles.ListUsers(ctx, page, size)
	})
}

// GetProfile returns the cached profile of one user as a single-row page.
func (s *ProfileService) GetProfile(ctx context.Context, id int64) (domain.UserRow, error) {
	key := ProfileKey(id)
	page, err := s.cache.Query(ctx, key, func(ctx context.Context) (domain.Page, error) {
		row, err := s.profiles.GetUser(ctx, id)
		if err != nil {
			return domain.Page{}, err
		}
		return domain.Page{Rows: []domain.UserRow{row}, Total: 1}, nil
	})
	if err != nil {
		return domain.UserRow{}, err
	}
	row, ok := page.Row(id)
	if !ok {
		return domain.UserRow{}, client.ErrUserNotFound
	}
	return *row, nil
}

// Refresh reloads every stale users and profile page. A failing tag does
// not keep the other from refreshing.
func (s *ProfileService) Refresh(ctx context.Context) error {
	return errors.Join(
		s.cache.Refresh(ctx, querycache.TagUsers, s.fetchFor),
		s.cache.Refresh(ctx, querycache.TagProfile, s.fetchFor),
	)
}

func (s *ProfileService) fetchFor(key querycache.Key) querycache.FetchFunc {
	switch key.Tag {
	case querycache.TagProfile:
		id, _ := strconv.ParseInt(key.Name, 10, 64)
		return func(ctx context.Context) (domain.Page, error) {
			row, err := s.profiles.GetUser(ctx, id)
			if err != nil {
				return domain.Page{}, err
			}
			return domain.Page{Rows: []domain.UserRow{row}, Total: 1}, nil
		}
	default:
		page, size := parsePageKey(key.Name)
		return func(ctx context.Context) (domain.Page, error) {
			return s.profiles.ListUsers(ctx, page, size)
		}
	}
}

// UsersPageKey addresses a cached listing page.
func UsersPageKey(page, size int) querycache.Key {
	return querycache.Key{Tag: querycache.TagUsers, Name: "page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)}
}

// ProfileKey addresses a cached single-user profile.
func ProfileKey(id int64) querycache.Key {
	return querycache.Key{Tag: querycache.TagProfile, Name: strconv.FormatInt(id, 10)}
}

func parsePageKey(name string) (int, int) {
	values, _ := url.ParseQuery(name)
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("size"))
	return page, size
}

func applyProfile(rowID int64, update domain.ProfileUpdate) querycache.Mutator {
	return func(page *domain.Page) bool {
		row, ok := page.Row(rowID)
		if !ok || update.Empty() {
			return false
		}
		update.Apply(row)
		return true
	}
}
