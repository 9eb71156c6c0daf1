package domain

// CanAccess decides whether an actor may read, update or delete a trial
// owned by ownerID. Admins may touch any record; researchers and
// coordinators only their own. The switch is exhaustive over Role so an
// unknown role denies access.
func CanAccess(role Role, ownerID, actorID string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleResearcher, RoleCoordinator:
		return ownerID != "" && ownerID == actorID
	default:
		return false
	}
}
