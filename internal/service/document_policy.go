package service

import "greenledger.io/greenledger/internal/domain"

// CanDecryptDocument reports whether actor may read the cleartext of doc.
//
// The platform admin operates the service but never reads tenant evidence.
// Everyone else must belong to the document's organization, except auditors,
// who are delegated across organizations.
func CanDecryptDocument(actor domain.Actor, doc *domain.Document) bool {
	if actor.Role == domain.RolePlatformAdmin {
		return false
	}
	if actor.OrganizationID != doc.OrganizationID && actor.Role != domain.RoleAuditor {
		return false
	}
	switch actor.Role {
	case domain.RoleWorker, domain.RoleOrgAdmin, domain.RoleAuditor:
		return true
	default:
		return false
	}
}

// CanUploadDocument reports whether actor may attach evidence for its organization.
func CanUploadDocument(actor domain.Actor) bool {
	if actor.OrganizationID == 0 {
		return false
	}
	return actor.Role == domain.RoleWorker || actor.Role == domain.RoleOrgAdmin
}
