package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// The records below are maintained outside the workflow core and only read by it.

// Department handles one issue category for one MC admin. AdminID is the
// user id of the department admin.
type Department struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      IssueCategory      `bson:"name" json:"name"`
	MCAdminID primitive.ObjectID `bson:"mc_admin_id" json:"mc_admin_id"`
	AdminID   primitive.ObjectID `bson:"admin_id" json:"admin_id"`
}

// Ward is a geographic sub-unit with at most one councillor.
type Ward struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"ward_name" json:"ward_name"`
	CouncillorID *primitive.ObjectID `bson:"councillor_id" json:"councillor_id"`
}

// Councillor is the elected representative of a ward.
type Councillor struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	WardID    primitive.ObjectID `bson:"ward_id" json:"ward_id"`
	MCAdminID primitive.ObjectID `bson:"mc_admin_id" json:"mc_admin_id"`
	Name      string             `bson:"name" json:"name"`
}

// MCAdminProfile is the municipal-corporation administrator record.
type MCAdminProfile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	City   string             `bson:"city" json:"city"`
}

// WorkerProfile is a field worker attached to one department.
type WorkerProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department_id"`
	Name         string             `bson:"name" json:"name"`
	Contact      string             `bson:"contact" json:"contact"`
}
