package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"golang.org/x/sync/errgroup"
)

// maxUserLookups bounds the concurrent user fetches of one activity page.
const maxUserLookups = 8

// ActivityEntry is an activity row with the handle of the user it belongs
// to. User is nil when the service no longer knows the user.
type ActivityEntry struct {
	models.Activity
	User *User
}

type ActivityPage struct {
	Activities []ActivityEntry
	Page       int
	Limit      int
}

type ActivityLogs struct {
	client client.Client
	users  *Users
}

func NewActivityLogs(c client.Client, users *Users) *ActivityLogs {
	return &ActivityLogs{client: c, users: users}
}

// Get lists one page of the activity log. Zero page or limit mean 1 and 50.
// Each distinct user is fetched once.
func (a *ActivityLogs) Get(ctx context.Context, page, limit int) (*ActivityPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var list models.ActivityList
	if err := a.client.Do(ctx, http.MethodGet, "/api/activity?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}

	users, err := a.lookupUsers(ctx, list.Activities)
	if err != nil {
		return nil, err
	}

	out := &ActivityPage{
		Activities: make([]ActivityEntry, 0, len(list.Activities)),
		Page:       list.Page,
		Limit:      list.Limit,
	}
	for _, act := range list.Activities {
		out.Activities = append(out.Activities, ActivityEntry{Activity: act, User: users[act.UserID]})
	}
	return out, nil
}

func (a *ActivityLogs) lookupUsers(ctx context.Context, acts []models.Activity) (map[int64]*User, error) {
	var (
		mu    sync.Mutex
		users = make(map[int64]*User)
		seen  = make(map[int64]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxUserLookups)
	for _, act := range acts {
		id := act.UserID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			u, err := a.users.Get(gctx, UserByID(id))
			if err != nil {
				return err
			}
			mu.Lock()
			users[id] = u
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}
