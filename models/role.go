package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the authorization role carried in a caller's token.
type Role string

const (
	RoleCitizen         Role = "citizen"
	RoleCouncillor      Role = "councillor"
	RoleMCAdmin         Role = "mc_admin"
	RoleDepartmentAdmin Role = "department_admin"
	RoleWorker          Role = "worker"
	RoleSuperAdmin      Role = "super_admin"
	RoleMLA             Role = "mla"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleCouncillor, RoleMCAdmin, RoleDepartmentAdmin,
		RoleWorker, RoleSuperAdmin, RoleMLA:
		return true
	}
	return false
}

// PartyKind discriminates which record a Party id points at.
type PartyKind string

const (
	PartyCitizen         PartyKind = "citizen"
	PartyCouncillor      PartyKind = "councillor"
	PartyMCAdmin         PartyKind = "mc_admin"
	PartyDepartmentAdmin PartyKind = "department_admin"
	PartyWorker          PartyKind = "worker"
)

// Party is a typed reference to an actor or recipient. Citizen and department
// admin ids are user ids; councillor, MC admin and worker ids are ids of their
// organisational records.
type Party struct {
	Kind PartyKind          `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

func (p Party) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.ID.Hex())
}

// CitizenParty references a citizen by user id.
func CitizenParty(id primitive.ObjectID) Party { return Party{Kind: PartyCitizen, ID: id} }

// CouncillorParty references a councillor record.
func CouncillorParty(id primitive.ObjectID) Party { return Party{Kind: PartyCouncillor, ID: id} }

// MCAdminParty references an MC admin record.
func MCAdminParty(id primitive.ObjectID) Party { return Party{Kind: PartyMCAdmin, ID: id} }

// DepartmentAdminParty references a department admin by user id.
func DepartmentAdminParty(id primitive.ObjectID) Party {
	return Party{Kind: PartyDepartmentAdmin, ID: id}
}

// WorkerParty references a worker record.
func WorkerParty(id primitive.ObjectID) Party { return Party{Kind: PartyWorker, ID: id} }
