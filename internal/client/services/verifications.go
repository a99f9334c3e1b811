package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/client/registry"
)

const (
	verifyPath = "/api/v1/verify"

	noValidFieldsMessage = "No valid fields to update"
	// NoChangesMessage is returned by Update when the service found nothing
	// to change.
	NoChangesMessage = "No changes were necessary."

	DefaultPage  = 1
	DefaultLimit = 50
)

type verificationKeyKind int

const (
	verificationKeyNone verificationKeyKind = iota
	verificationKeyDiscord
	verificationKeyCkey
	verificationKeyInstance
)

// VerificationKey addresses a verification by Discord id, by ckey or by a
// handle already held.
type VerificationKey struct {
	kind  verificationKeyKind
	value string
	v     *Verification
}

func ByDiscord(discordID string) VerificationKey {
	return VerificationKey{kind: verificationKeyDiscord, value: discordID}
}

func ByCkey(ckey string) VerificationKey {
	return VerificationKey{kind: verificationKeyCkey, value: ckey}
}

func ByVerification(v *Verification) VerificationKey {
	return VerificationKey{kind: verificationKeyInstance, v: v}
}

func (k VerificationKey) String() string {
	switch k.kind {
	case verificationKeyDiscord:
		return "discord id " + strconv.Quote(k.value)
	case verificationKeyCkey:
		return "ckey " + strconv.Quote(k.value)
	case verificationKeyInstance:
		if k.v == nil {
			return "nil verification"
		}
		return "discord id " + strconv.Quote(k.v.DiscordID())
	default:
		return "empty verification key"
	}
}

// path is the endpoint addressing k: /api/v1/verify/{discordId} or
// /api/v1/verify/ckey/{ckey}.
func (k VerificationKey) path() (string, bool) {
	switch k.kind {
	case verificationKeyDiscord:
		return verifyPath + "/" + url.PathEscape(k.value), k.value != ""
	case verificationKeyCkey:
		return verifyPath + "/ckey/" + url.PathEscape(k.value), k.value != ""
	case verificationKeyInstance:
		if k.v == nil {
			return "", false
		}
		return ByDiscord(k.v.DiscordID()).path()
	}
	return "", false
}

// ListOptions selects a page of GET /api/v1/verify. Zero values mean page 1,
// 50 per page, no search.
type ListOptions struct {
	Page   int
	Limit  int
	Search string
}

type VerificationPage struct {
	Verifications []*Verification
	Page          int
	Limit         int
}

// Verifications is the Verifications resource module. It owns the registry
// of verification handles keyed by Discord id and ckey.
type Verifications struct {
	client   client.Client
	registry *registry.Registry[string, string, models.Verification]
	handles  *handles[models.Verification, Verification]
}

func NewVerifications(c client.Client) *Verifications {
	v := &Verifications{
		client: c,
		registry: registry.New(
			func(v models.Verification) string { return v.DiscordID },
			func(v models.Verification) string { return v.Ckey },
		),
	}
	v.handles = newHandles(func(inst *registry.Instance[models.Verification]) *Verification {
		return &Verification{inst: inst, verifications: v}
	})
	return v
}

func (s *Verifications) adopt(rec models.Verification) *Verification {
	inst, displaced := s.registry.Upsert(rec)
	s.handles.forget(displaced)
	return s.handles.get(inst)
}

func (s *Verifications) adoptAll(recs []models.Verification) []*Verification {
	out := make([]*Verification, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.adopt(rec))
	}
	return out
}

// evict removes the entity addressed by k from both key maps.
func (s *Verifications) evict(k VerificationKey) {
	var inst *registry.Instance[models.Verification]
	switch k.kind {
	case verificationKeyDiscord:
		inst, _ = s.registry.Remove(k.value)
	case verificationKeyCkey:
		inst, _ = s.registry.RemoveBySecondary(k.value)
	case verificationKeyInstance:
		if k.v != nil {
			inst, _ = s.registry.Remove(k.v.DiscordID())
		}
	}
	s.handles.forget(inst)
}

// Cached returns the handle already registered under k without a request.
func (s *Verifications) Cached(k VerificationKey) (*Verification, bool) {
	var (
		inst *registry.Instance[models.Verification]
		ok   bool
	)
	switch k.kind {
	case verificationKeyDiscord:
		inst, ok = s.registry.Get(k.value)
	case verificationKeyCkey:
		inst, ok = s.registry.GetBySecondary(k.value)
	case verificationKeyInstance:
		if k.v != nil {
			inst, ok = s.registry.Canonical(k.v.inst)
		}
	}
	if !ok {
		return nil, false
	}
	return s.handles.get(inst), true
}

// Get fetches the verification addressed by k. (nil, nil) means the service
// has none; any cached handle for k is then marked deleted.
func (s *Verifications) Get(ctx context.Context, k VerificationKey) (*Verification, error) {
	path, ok := k.path()
	if !ok {
		return nil, &NotFoundError{Resolvable: k}
	}

	var rec models.Verification
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		if isNotFound(err) {
			s.evict(k)
			return nil, nil
		}
		return nil, err
	}
	return s.adopt(rec), nil
}

func (s *Verifications) GetByDiscord(ctx context.Context, discordID string) (*Verification, error) {
	return s.Get(ctx, ByDiscord(discordID))
}

func (s *Verifications) GetByCkey(ctx context.Context, ckey string) (*Verification, error) {
	return s.Get(ctx, ByCkey(ckey))
}

// BulkByDiscord fetches every known verification among discordIDs.
func (s *Verifications) BulkByDiscord(ctx context.Context, discordIDs []string) ([]*Verification, error) {
	var list models.VerificationList
	err := s.client.Do(ctx, http.MethodPost, verifyPath+"/bulk/discord",
		models.BulkByDiscordRequest{DiscordIDs: discordIDs}, &list)
	if err != nil {
		return nil, err
	}
	return s.adoptAll(list.Verifications), nil
}

// BulkByCkey fetches every known verification among ckeys.
func (s *Verifications) BulkByCkey(ctx context.Context, ckeys []string) ([]*Verification, error) {
	var list models.VerificationList
	err := s.client.Do(ctx, http.MethodPost, verifyPath+"/bulk/ckey",
		models.BulkByCkeyRequest{Ckeys: ckeys}, &list)
	if err != nil {
		return nil, err
	}
	return s.adoptAll(list.Verifications), nil
}

// GetAll lists one page of verifications, optionally filtered by search.
func (s *Verifications) GetAll(ctx context.Context, opts ListOptions) (*VerificationPage, error) {
	if opts.Page <= 0 {
		opts.Page = DefaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("limit", strconv.Itoa(opts.Limit))
	q.Set("search", opts.Search)

	var list models.VerificationList
	if err := s.client.Do(ctx, http.MethodGet, verifyPath+"?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return &VerificationPage{
		Verifications: s.adoptAll(list.Verifications),
		Page:          list.Page,
		Limit:         list.Limit,
	}, nil
}

// CreateOrUpdate upserts the verification of req.DiscordID and returns its
// handle as stored by the service.
func (s *Verifications) CreateOrUpdate(ctx context.Context, req models.CreateVerificationRequest) (*Verification, error) {
	if err := s.client.Do(ctx, http.MethodPost, verifyPath, req, nil); err != nil {
		return nil, err
	}
	v, err := s.GetByDiscord(ctx, req.DiscordID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &NotFoundError{Resolvable: ByDiscord(req.DiscordID)}
	}
	return v, nil
}

// Update applies patch remotely and returns the service's message. The
// service merges verified_flags into the existing set. When it reports that
// nothing could be updated, Update succeeds with NoChangesMessage. Handles
// are not refreshed; use Verification.Update for that.
func (s *Verifications) Update(ctx context.Context, k VerificationKey, patch models.VerificationPatch) (string, error) {
	if k.kind == verificationKeyInstance && (k.v == nil || k.v.Deleted()) {
		return "", &NotFoundError{Resolvable: k}
	}
	path, ok := k.path()
	if !ok {
		return "", &NotFoundError{Resolvable: k}
	}

	var res models.MessageResponse
	if err := s.client.Do(ctx, http.MethodPut, path, patch, &res); err != nil {
		if reqErr, ok := client.AsRequestError(err); ok &&
			reqErr.Status == http.StatusBadRequest && reqErr.RemoteMessage() == noValidFieldsMessage {
			return NoChangesMessage, nil
		}
		return "", s.missing(err, k)
	}
	return res.Message, nil
}

// missing maps a 404 on a write to NotFoundError and drops k from the
// registry. Other errors pass through.
func (s *Verifications) missing(err error, k VerificationKey) error {
	if !isNotFound(err) {
		return err
	}
	s.evict(k)
	return &NotFoundError{Resolvable: k}
}

// Delete deletes the verification and drops it from both key maps. Deleting
// a handle that is already deleted is a no-op.
func (s *Verifications) Delete(ctx context.Context, k VerificationKey) (string, error) {
	if k.kind == verificationKeyInstance && k.v != nil && k.v.Deleted() {
		return "", nil
	}
	path, ok := k.path()
	if !ok {
		return "", &NotFoundError{Resolvable: k}
	}

	var res models.MessageResponse
	if err := s.client.Do(ctx, http.MethodDelete, path, nil, &res); err != nil {
		return "", s.missing(err, k)
	}
	s.evict(k)
	return res.Message, nil
}

// Verification is the canonical handle of one Discord/ckey link.
type Verification struct {
	inst          *registry.Instance[models.Verification]
	verifications *Verifications
}

// Data returns a snapshot of the current record.
func (v *Verification) Data() models.Verification { return v.inst.Data() }

func (v *Verification) DiscordID() string { return v.inst.Data().DiscordID }
func (v *Verification) Ckey() string      { return v.inst.Data().Ckey }

// VerifiedFlags returns a copy of the flags.
func (v *Verification) VerifiedFlags() models.Flags {
	return v.inst.Data().VerifiedFlags.Clone()
}

func (v *Verification) VerificationMethod() string { return v.inst.Data().VerificationMethod }
func (v *Verification) VerifiedBy() string         { return v.inst.Data().VerifiedBy }
func (v *Verification) CreatedAt() time.Time       { return v.inst.Data().CreatedAt.Time }

// UpdatedAt is nil until the record has been updated once.
func (v *Verification) UpdatedAt() *time.Time {
	ts := v.inst.Data().UpdatedAt
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func (v *Verification) HasBeenUpdated() bool { return v.UpdatedAt() != nil }
func (v *Verification) Deleted() bool        { return v.inst.Deleted() }

// Refresh re-fetches the record by Discord id. If the service no longer has
// it the handle is marked deleted.
func (v *Verification) Refresh(ctx context.Context) error {
	_, err := v.verifications.Get(ctx, ByVerification(v))
	return err
}

// Update applies patch remotely and then refreshes the handle. A patch that
// changes the Discord id leaves this handle deleted; fetch the new one with
// GetByDiscord.
func (v *Verification) Update(ctx context.Context, patch models.VerificationPatch) (string, error) {
	msg, err := v.verifications.Update(ctx, ByVerification(v), patch)
	if err != nil {
		return "", err
	}
	if patch.DiscordID != nil && *patch.DiscordID != v.DiscordID() {
		v.verifications.evict(ByVerification(v))
		_, err = v.verifications.GetByDiscord(ctx, *patch.DiscordID)
		return msg, err
	}
	return msg, v.Refresh(ctx)
}

func (v *Verification) Delete(ctx context.Context) (string, error) {
	return v.verifications.Delete(ctx, ByVerification(v))
}
