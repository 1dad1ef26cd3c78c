// Package policy decides who may read, change, create and rate recipes.
// All checks are pure; resolving whether a recipe exists is the caller's job.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
)

// Actor identifies the caller of an operation.
type Actor struct {
	UserID   uuid.UUID
	Role     string
	FamilyID uuid.UUID
}

// Resource is the ownership descriptor of a recipe.
type Resource struct {
	OwnerID  uuid.UUID
	FamilyID uuid.UUID
}

// CanRead allows the owner and any member of the recipe's family.
func CanRead(a Actor, r Resource) bool {
	return IsOwner(a, r) || sameFamily(a.FamilyID, r.FamilyID)
}

// CanMutate applies the read rule on the by-id path. The service layer uses
// the stricter IsOwner for update and delete.
func CanMutate(a Actor, r Resource) bool {
	return CanRead(a, r)
}

// IsOwner is true only for the user that created the recipe.
func IsOwner(a Actor, r Resource) bool {
	return a.UserID != uuid.Nil && a.UserID == r.OwnerID
}

// CanListFamily gates family listings on membership alone.
func CanListFamily(a Actor, familyID uuid.UUID) bool {
	return sameFamily(a.FamilyID, familyID)
}

// CanOwn reports whether a can own a recipe. Recipes always belong to an
// identified user and a family.
func CanOwn(a Actor) bool {
	return a.UserID != uuid.Nil && a.FamilyID != uuid.Nil
}

// CanCreate allows actors whose role is in the configured allow list.
func CanCreate(a Actor, roles []string) bool {
	return CanOwn(a) && hasRole(a.Role, roles)
}

// CanRate requires an allowed role and membership of the recipe's family.
// Ownership plays no part.
func CanRate(a Actor, r Resource, roles []string) bool {
	return hasRole(a.Role, roles) && sameFamily(a.FamilyID, r.FamilyID)
}

// Require turns a denied decision into ErrForbidden.
func Require(allowed bool, action string) error {
	if allowed {
		return nil
	}
	return fmt.Errorf("%w: not allowed to %s", apperrors.ErrForbidden, action)
}

// sameFamily never matches the zero id: an actor without a family shares it
// with nobody.
func sameFamily(a, b uuid.UUID) bool {
	return a != uuid.Nil && a == b
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}
