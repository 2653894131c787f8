package resource

import (
	"errors"
	"fmt"
)

// ErrNoUser is returned when an access predicate is requested without an
// authenticated user. Callers must fail closed on it rather than run an
// unscoped query.
var ErrNoUser = errors.New("no authenticated user")

// memberStores selects the ids of every store the bound user belongs to.
const memberStores = "SELECT store_id FROM store_users WHERE user_id = ?"

// AccessPredicate returns the condition restricting kind k to rows visible
// to userID, derived from the kind's OwnerPath.
func AccessPredicate(k Kind, userID string) (Clause, error) {
	if userID == "" {
		return Clause{}, ErrNoUser
	}
	d := Describe(k)
	return ownerClause(d.Table, d.Owner, userID), nil
}

func ownerClause(table string, p OwnerPath, userID string) Clause {
	switch {
	case p.Self != "":
		return Clause{
			SQL:  fmt.Sprintf("%s.%s = ?", table, p.Self),
			Args: []any{userID},
		}
	case p.Parent != nil:
		return Clause{
			SQL: fmt.Sprintf("%s.%s IN (SELECT id FROM %s WHERE %s IN (%s))",
				table, p.Parent.Column, p.Parent.Table, p.Parent.StoreColumn, memberStores),
			Args: []any{userID},
		}
	default:
		return Clause{
			SQL:  fmt.Sprintf("%s.%s IN (%s)", table, p.StoreColumn, memberStores),
			Args: []any{userID},
		}
	}
}
