package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-utang-ledger/internal/event"
	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/repository"
	"go-utang-ledger/internal/resource"
	"go-utang-ledger/pkg/validator"

	"golang.org/x/sync/errgroup"
)

// ListResult is one page of records plus the total matching count.
type ListResult struct {
	Data  []model.Record
	Total int64
}

type ResourceService interface {
	List(ctx context.Context, k resource.Kind, userID string, params resource.Values) (*ListResult, error)
	Get(ctx context.Context, k resource.Kind, id, userID string) (model.Record, error)
	Create(ctx context.Context, k resource.Kind, userID string, body []byte) (model.Record, error)
	Update(ctx context.Context, k resource.Kind, id, userID string, body []byte) (model.Record, error)
	Delete(ctx context.Context, k resource.Kind, id, userID string) (model.Record, error)
	// VerifyAccess reports whether userID may act on record id. Absent
	// records and anonymous callers yield false.
	VerifyAccess(ctx context.Context, k resource.Kind, id, userID string) (bool, error)
}

type resourceService struct {
	registry *repository.Registry
	ledger   repository.LedgerRepository
	users    repository.UserRepository
	notifier event.Notifier
}

func NewResourceService(
	registry *repository.Registry,
	ledger repository.LedgerRepository,
	users repository.UserRepository,
	notifier event.Notifier,
) ResourceService {
	if notifier == nil {
		notifier = event.Nop{}
	}
	return &resourceService{
		registry: registry,
		ledger:   ledger,
		users:    users,
		notifier: notifier,
	}
}

func (s *resourceService) List(ctx context.Context, k resource.Kind, userID string, params resource.Values) (*ListResult, error) {
	access, err := resource.AccessPredicate(k, userID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	q := resource.Translate(k, params)
	q.Where = resource.Predicate{access}.And(q.Where...)
	d := s.registry.Delegate(k)

	var (
		rows  []model.Record
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = d.Count(gctx, q.Where)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = d.FindMany(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ListResult{Data: rows, Total: total}, nil
}

func (s *resourceService) Get(ctx context.Context, k resource.Kind, id, userID string) (model.Record, error) {
	d := s.registry.Delegate(k)

	// 1. Existence and membership in one read
	rec, err := d.FindForAccess(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !rec.VisibleTo(userID) {
		return nil, ErrForbidden
	}

	// 2. Reload with the relations the client expects
	return d.FindUnique(ctx, id, resource.Describe(k).Include...)
}

func (s *resourceService) VerifyAccess(ctx context.Context, k resource.Kind, id, userID string) (bool, error) {
	_, err := s.verify(ctx, k, id, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrForbidden):
		return false, nil
	}
	return false, err
}

// verify loads the record for a mutation. Absence is reported as
// ErrForbidden; only the mutation itself may say ErrNotFound.
func (s *resourceService) verify(ctx context.Context, k resource.Kind, id, userID string) (model.Record, error) {
	if userID == "" || id == "" {
		return nil, ErrForbidden
	}
	rec, err := s.registry.Delegate(k).FindForAccess(ctx, id, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !rec.VisibleTo(userID) {
		return nil, ErrForbidden
	}
	return rec, nil
}

func decodeInput(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return ErrInvalidBody
	}
	return decodeValidated(dst)
}

func decodeValidated(v interface{}) error {
	if errs := validator.ValidateStruct(v); len(errs) > 0 {
		return validationFailed(errs)
	}
	return nil
}

// requireMember returns the caller's role in storeID. Unknown stores and
// non-members are both ErrForbidden.
func (s *resourceService) requireMember(ctx context.Context, storeID, userID string) (model.Role, error) {
	role, err := s.ledger.MemberRole(ctx, storeID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrForbidden
	}
	return role, err
}

// utangStore resolves the store that owns utangID and checks membership.
func (s *resourceService) utangStore(ctx context.Context, utangID, userID string) (string, error) {
	storeID, err := s.ledger.UtangStoreID(ctx, utangID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrForbidden
	}
	if err != nil {
		return "", err
	}
	if _, err := s.requireMember(ctx, storeID, userID); err != nil {
		return "", err
	}
	return storeID, nil
}

func (s *resourceService) Create(ctx context.Context, k resource.Kind, userID string, body []byte) (model.Record, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	rec, storeID, err := s.create(ctx, k, userID, body)
	if err != nil {
		return nil, fromRepo(err)
	}

	s.notify(ctx, event.Change{Resource: string(k), Action: event.Created, ID: rec.PrimaryKey(), StoreID: storeID, ActorID: userID})
	return rec, nil
}

func (s *resourceService) create(ctx context.Context, k resource.Kind, userID string, body []byte) (model.Record, string, error) {
	switch k {
	case resource.Stores:
		var in StoreInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		store := in.model()
		if err := s.ledger.CreateStore(ctx, store, userID); err != nil {
			return nil, "", err
		}
		return store, store.ID, nil

	case resource.StoreUsers:
		var in StoreUserInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		role, err := s.requireMember(ctx, in.StoreID, userID)
		if err != nil {
			return nil, "", err
		}
		if role != model.RoleOwner {
			return nil, "", ErrForbidden
		}
		if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, "", invalid(fmt.Sprintf("user %q does not exist", in.UserID))
			}
			return nil, "", err
		}
		m := in.model()
		if err := s.registry.Delegate(k).Create(ctx, m); err != nil {
			return nil, "", err
		}
		return m, m.StoreID, nil

	case resource.Customers:
		var in CustomerInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		if _, err := s.requireMember(ctx, in.StoreID, userID); err != nil {
			return nil, "", err
		}
		c := in.model()
		if err := s.ledger.CreateCustomer(ctx, c); err != nil {
			return nil, "", err
		}
		return c, c.StoreID, nil

	case resource.Items:
		var in ItemInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		if _, err := s.requireMember(ctx, in.StoreID, userID); err != nil {
			return nil, "", err
		}
		item := in.model()
		if err := s.registry.Delegate(k).Create(ctx, item); err != nil {
			return nil, "", err
		}
		return item, item.StoreID, nil

	case resource.Utang:
		var in UtangInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		if _, err := s.requireMember(ctx, in.StoreID, userID); err != nil {
			return nil, "", err
		}
		u := in.model()
		if err := s.ledger.CreateUtang(ctx, u); err != nil {
			return nil, "", err
		}
		return u, u.StoreID, nil

	case resource.UtangItems:
		var in UtangItemInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		storeID, err := s.utangStore(ctx, in.UtangID, userID)
		if err != nil {
			return nil, "", err
		}
		itemStore, err := s.ledger.ItemStoreID(ctx, in.ItemID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && itemStore != storeID) {
			return nil, "", invalid(fmt.Sprintf("item %q is not sold by the utang's store", in.ItemID))
		}
		if err != nil {
			return nil, "", err
		}
		line := in.model()
		if err := s.registry.Delegate(k).Create(ctx, line); err != nil {
			return nil, "", err
		}
		return line, storeID, nil

	case resource.Payments:
		var in PaymentInput
		if err := decodeInput(body, &in); err != nil {
			return nil, "", err
		}
		storeID, err := s.utangStore(ctx, in.UtangID, userID)
		if err != nil {
			return nil, "", err
		}
		p := in.model(in.UtangID)
		if err := s.registry.Delegate(k).Create(ctx, &p); err != nil {
			return nil, "", err
		}
		return &p, storeID, nil

	case resource.Users:
		return nil, "", invalid("user accounts are created through sign-up")
	}

	return nil, "", ErrUnknownResource
}

func (s *resourceService) Update(ctx context.Context, k resource.Kind, id, userID string, body []byte) (model.Record, error) {
	// 1. Access check before anything is written
	current, err := s.verify(ctx, k, id, userID)
	if err != nil {
		return nil, err
	}

	// 2. Decode the patch and keep only updatable fields
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, ErrInvalidBody
	}
	d := s.registry.Delegate(k)
	patch, err := d.Decode(body)
	if err != nil {
		return nil, ErrInvalidBody
	}
	columns, err := updateColumns(k, fields)
	if err != nil {
		return nil, err
	}

	// 3. Only an owner may change membership roles
	if _, ok := fields["role"]; ok && k == resource.StoreUsers {
		role, err := s.requireMember(ctx, current.StoreRef(), userID)
		if err != nil {
			return nil, err
		}
		if role != model.RoleOwner {
			return nil, ErrForbidden
		}
	}

	// 4. Mutate with the access predicate as part of the filter
	guard, err := resource.AccessPredicate(k, userID)
	if err != nil {
		return nil, ErrForbidden
	}
	updated, err := d.Update(ctx, id, patch, columns, guard)
	if err != nil {
		return nil, fromRepo(err)
	}

	s.notify(ctx, event.Change{Resource: string(k), Action: event.Updated, ID: updated.PrimaryKey(), StoreID: current.StoreRef(), ActorID: userID})
	return updated, nil
}

// updateColumns maps the present, updatable JSON fields of a patch to
// columns, validating each value. Other fields are ignored.
func updateColumns(k resource.Kind, fields map[string]json.RawMessage) ([]string, error) {
	desc := resource.Describe(k)
	rules := updateRules[k]

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := desc.Updatable[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var errs []*validator.ErrorResponse
	columns := make([]string, 0, len(keys))
	for _, key := range keys {
		if rule, ok := rules[key]; ok {
			var value interface{}
			if err := json.Unmarshal(fields[key], &value); err != nil {
				return nil, ErrInvalidBody
			}
			if e := validator.ValidateVar(key, value, rule); e != nil {
				errs = append(errs, e)
			}
		}
		columns = append(columns, desc.Updatable[key])
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	return columns, nil
}

func (s *resourceService) Delete(ctx context.Context, k resource.Kind, id, userID string) (model.Record, error) {
	current, err := s.verify(ctx, k, id, userID)
	if err != nil {
		return nil, err
	}

	guard, err := resource.AccessPredicate(k, userID)
	if err != nil {
		return nil, ErrForbidden
	}

	change := event.Change{Resource: string(k), Action: event.Deleted, StoreID: current.StoreRef(), ActorID: userID}
	// Memberships go with the store, so its audience is read beforehand.
	if k == resource.Stores {
		members, err := s.ledger.MemberIDs(ctx, current.PrimaryKey())
		if err != nil {
			return nil, err
		}
		change.Recipients = members
	}

	deleted, err := s.registry.Delegate(k).Delete(ctx, id, guard)
	if err != nil {
		return nil, err
	}

	change.ID = deleted.PrimaryKey()
	s.notify(ctx, change)
	return deleted, nil
}

func (s *resourceService) notify(ctx context.Context, c event.Change) {
	if c.Resource == string(resource.Users) {
		return
	}
	c.At = time.Now()
	s.notifier.Notify(ctx, c)
}
