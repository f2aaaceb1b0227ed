package authz

import (
	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
)

// CanModify reports whether the requester may mutate a resource owned by
// ownerID. Admins may mutate any resource; everyone else only their own.
func CanModify(role enums.UserRole, requesterID, ownerID uuid.UUID) bool {
	if role == enums.UserRoleAdmin {
		return true
	}
	return requesterID != uuid.Nil && requesterID == ownerID
}

// CanBind reports whether the requester may bind an upload owned by
// ownerID to one of their entities. Binding is strictly owner-only, even
// for admins, so a claimed upload always belongs to the entity's author.
func CanBind(requesterID, ownerID uuid.UUID) bool {
	return requesterID != uuid.Nil && requesterID == ownerID
}
