package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/client/registry"
)

type userKeyKind int

const (
	userKeyNone userKeyKind = iota
	userKeyID
	userKeyUsername
	userKeyInstance
	userKeyPartial
)

// UserKey identifies a user by id, by username, by a handle already held or
// by the partial record embedded in a login response.
type UserKey struct {
	kind     userKeyKind
	id       int64
	username string
	user     *User
}

func UserByID(id int64) UserKey { return UserKey{kind: userKeyID, id: id} }

func UserByUsername(username string) UserKey {
	return UserKey{kind: userKeyUsername, username: username}
}

func UserByInstance(u *User) UserKey { return UserKey{kind: userKeyInstance, user: u} }

// UserByPartial prefers the id and falls back to the username.
func UserByPartial(p models.UserPartial) UserKey {
	if p.ID != 0 {
		return UserByID(p.ID)
	}
	return UserByUsername(p.Username)
}

func (k UserKey) String() string {
	switch k.kind {
	case userKeyID:
		return "user id " + strconv.FormatInt(k.id, 10)
	case userKeyUsername:
		return "user " + strconv.Quote(k.username)
	case userKeyInstance:
		if k.user == nil {
			return "nil user"
		}
		return "user id " + strconv.FormatInt(k.user.ID(), 10)
	default:
		return "empty user key"
	}
}

// pathSegment is what GET /api/users/{idOrUsername} accepts for k.
func (k UserKey) pathSegment() (string, bool) {
	switch k.kind {
	case userKeyID:
		return strconv.FormatInt(k.id, 10), true
	case userKeyUsername:
		return url.PathEscape(k.username), k.username != ""
	case userKeyInstance:
		if k.user == nil {
			return "", false
		}
		return strconv.FormatInt(k.user.ID(), 10), true
	}
	return "", false
}

// Users is the Users resource module. It owns the registry of user handles.
type Users struct {
	client   client.Client
	registry *registry.Registry[int64, string, models.User]
	handles  *handles[models.User, User]
}

func NewUsers(c client.Client) *Users {
	u := &Users{
		client: c,
		registry: registry.New(
			func(u models.User) int64 { return u.ID },
			func(u models.User) string { return u.Username },
		),
	}
	u.handles = newHandles(func(inst *registry.Instance[models.User]) *User {
		return &User{inst: inst, users: u}
	})
	return u
}

func (u *Users) adopt(rec models.User) *User {
	inst, displaced := u.registry.Upsert(rec)
	u.handles.forget(displaced)
	return u.handles.get(inst)
}

func (u *Users) evict(id int64) {
	inst, _ := u.registry.Remove(id)
	u.handles.forget(inst)
}

// Remember registers the user described by a login response without a
// request. A handle already registered under its id is returned unchanged.
func (u *Users) Remember(p models.UserPartial) *User {
	if cached, ok := u.Cached(UserByID(p.ID)); ok {
		return cached
	}
	return u.adopt(models.User{ID: p.ID, Username: p.Username, Role: p.Role})
}

// Cached returns the handle already registered under key without a request.
func (u *Users) Cached(key UserKey) (*User, bool) {
	var (
		inst *registry.Instance[models.User]
		ok   bool
	)
	switch key.kind {
	case userKeyID:
		inst, ok = u.registry.Get(key.id)
	case userKeyUsername:
		inst, ok = u.registry.GetBySecondary(key.username)
	case userKeyInstance:
		if key.user != nil {
			inst, ok = u.registry.Canonical(key.user.inst)
		}
	}
	if !ok {
		return nil, false
	}
	return u.handles.get(inst), true
}

// Get fetches the user and returns its canonical handle. A user the service
// does not know yields (nil, nil) and is dropped from the registry.
func (u *Users) Get(ctx context.Context, key UserKey) (*User, error) {
	seg, ok := key.pathSegment()
	if !ok {
		return nil, &NotFoundError{Resolvable: key}
	}

	var rec models.User
	if err := u.client.Do(ctx, http.MethodGet, "/api/users/"+seg, nil, &rec); err != nil {
		if isNotFound(err) {
			if cached, ok := u.Cached(key); ok {
				u.evict(cached.ID())
			}
			return nil, nil
		}
		return nil, err
	}
	return u.adopt(rec), nil
}

// GetAll lists every user.
func (u *Users) GetAll(ctx context.Context) ([]*User, error) {
	var list models.UserList
	if err := u.client.Do(ctx, http.MethodGet, "/api/users", nil, &list); err != nil {
		return nil, err
	}
	out := make([]*User, 0, len(list.Users))
	for _, rec := range list.Users {
		out = append(out, u.adopt(rec))
	}
	return out, nil
}

// Create creates an account and returns its handle. An empty role means
// models.RoleUser.
func (u *Users) Create(ctx context.Context, username, password string, role models.Role) (*User, error) {
	if role == "" {
		role = models.RoleUser
	}
	var res models.CreateUserResponse
	err := u.client.Do(ctx, http.MethodPost, "/api/users", models.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     role,
	}, &res)
	if err != nil {
		return nil, err
	}

	created, err := u.Get(ctx, UserByID(res.ID))
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, &NotFoundError{Resolvable: UserByID(res.ID)}
	}
	return created, nil
}

// Resolve turns key into a user id, asking the service when an id or
// username is not registered yet.
func (u *Users) Resolve(ctx context.Context, key UserKey) (int64, error) {
	switch key.kind {
	case userKeyInstance:
		if key.user == nil || key.user.Deleted() {
			return 0, &NotFoundError{Resolvable: key}
		}
		return key.user.ID(), nil
	case userKeyID, userKeyUsername:
		if cached, ok := u.Cached(key); ok {
			return cached.ID(), nil
		}
		fetched, err := u.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		if fetched == nil {
			return 0, &NotFoundError{Resolvable: key}
		}
		return fetched.ID(), nil
	}
	return 0, &NotFoundError{Resolvable: key}
}

// UpdateRole changes the role remotely. It does not refresh any handle; use
// User.UpdateRole for mutate-then-refresh.
func (u *Users) UpdateRole(ctx context.Context, key UserKey, role models.Role) (string, error) {
	id, err := u.Resolve(ctx, key)
	if err != nil {
		return "", err
	}
	var res models.MessageResponse
	path := fmt.Sprintf("/api/users/%d", id)
	if err := u.client.Do(ctx, http.MethodPut, path, models.UpdateRoleRequest{Role: role}, &res); err != nil {
		return "", u.missing(err, id, key)
	}
	return res.Message, nil
}

// missing maps a 404 on a resolved user to NotFoundError and drops the user
// from the registry. Other errors pass through.
func (u *Users) missing(err error, id int64, key UserKey) error {
	if !isNotFound(err) {
		return err
	}
	u.evict(id)
	return &NotFoundError{Resolvable: key}
}

// Delete deletes the account and removes it from the registry. Deleting a
// handle that is already deleted is a no-op.
func (u *Users) Delete(ctx context.Context, key UserKey) (string, error) {
	if key.kind == userKeyInstance && key.user != nil && key.user.Deleted() {
		return "", nil
	}
	id, err := u.Resolve(ctx, key)
	if err != nil {
		return "", err
	}

	var res models.MessageResponse
	if err := u.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, &res); err != nil {
		return "", u.missing(err, id, key)
	}
	u.evict(id)
	return res.Message, nil
}

// User is the canonical handle of one Veyra account.
type User struct {
	inst  *registry.Instance[models.User]
	users *Users
}

// Data returns a snapshot of the current record.
func (u *User) Data() models.User { return u.inst.Data() }

func (u *User) ID() int64            { return u.inst.Data().ID }
func (u *User) Username() string     { return u.inst.Data().Username }
func (u *User) Role() models.Role    { return u.inst.Data().Role }
func (u *User) IsAdmin() bool        { return u.Role() == models.RoleAdmin }
func (u *User) CreatedAt() time.Time { return u.inst.Data().CreatedAt.Time }
func (u *User) Deleted() bool        { return u.inst.Deleted() }

// Refresh re-fetches the record. If the service no longer has the user the
// handle is marked deleted.
func (u *User) Refresh(ctx context.Context) error {
	_, err := u.users.Get(ctx, UserByID(u.ID()))
	return err
}

// UpdateRole changes the role remotely and then refreshes the handle.
func (u *User) UpdateRole(ctx context.Context, role models.Role) error {
	if _, err := u.users.UpdateRole(ctx, UserByInstance(u), role); err != nil {
		return err
	}
	return u.Refresh(ctx)
}

func (u *User) Delete(ctx context.Context) (string, error) {
	return u.users.Delete(ctx, UserByInstance(u))
}
