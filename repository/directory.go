package repository

import (
	"context"
	"errors"
	"fmt"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Directory reads the organisational collections maintained by the admin side.
type Directory struct {
	departments *mongo.Collection
	wards       *mongo.Collection
	councillors *mongo.Collection
	mcAdmins    *mongo.Collection
	workers     *mongo.Collection
}

func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{
		departments: db.Collection("departments"),
		wards:       db.Collection("wards"),
		councillors: db.Collection("councillors"),
		mcAdmins:    db.Collection("mc_admins"),
		workers:     db.Collection("workers"),
	}
}

// findOne decodes the first match into out, translating a miss into ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out any, what string, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", what, err)
	}
	return nil
}

func (d *Directory) DepartmentByID(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	var dept models.Department
	if err := findOne(ctx, d.departments, bson.M{"_id": id}, &dept, "department "+id.Hex()); err != nil {
		return nil, err
	}
	return &dept, nil
}

// DepartmentForCategory returns the oldest department named after category,
// restricted to one MC admin when mcAdminID is set.
func (d *Directory) DepartmentForCategory(ctx context.Context, category models.IssueCategory, mcAdminID *primitive.ObjectID) (*models.Department, error) {
	filter := bson.M{"name": category}
	if mcAdminID != nil {
		filter["mc_admin_id"] = *mcAdminID
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var dept models.Department
	if err := findOne(ctx, d.departments, filter, &dept, fmt.Sprintf("department for category %s", category), opts); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (d *Directory) WardByID(ctx context.Context, id primitive.ObjectID) (*models.Ward, error) {
	var ward models.Ward
	if err := findOne(ctx, d.wards, bson.M{"_id": id}, &ward, "ward "+id.Hex()); err != nil {
		return nil, err
	}
	return &ward, nil
}

func (d *Directory) CouncillorByID(ctx context.Context, id primitive.ObjectID) (*models.Councillor, error) {
	var c models.Councillor
	if err := findOne(ctx, d.councillors, bson.M{"_id": id}, &c, "councillor "+id.Hex()); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *Directory) CouncillorByUser(ctx context.Context, userID primitive.ObjectID) (*models.Councillor, error) {
	var c models.Councillor
	if err := findOne(ctx, d.councillors, bson.M{"user_id": userID}, &c, "councillor for user "+userID.Hex()); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *Directory) MCAdminByUser(ctx context.Context, userID primitive.ObjectID) (*models.MCAdminProfile, error) {
	var mc models.MCAdminProfile
	if err := findOne(ctx, d.mcAdmins, bson.M{"user_id": userID}, &mc, "MC admin for user "+userID.Hex()); err != nil {
		return nil, err
	}
	return &mc, nil
}

func (d *Directory) WorkerByID(ctx context.Context, id primitive.ObjectID) (*models.WorkerProfile, error) {
	var w models.WorkerProfile
	if err := findOne(ctx, d.workers, bson.M{"_id": id}, &w, "worker "+id.Hex()); err != nil {
		return nil, err
	}
	return &w, nil
}

func (d *Directory) WorkerByUser(ctx context.Context, userID primitive.ObjectID) (*models.WorkerProfile, error) {
	var w models.WorkerProfile
	if err := findOne(ctx, d.workers, bson.M{"user_id": userID}, &w, "worker for user "+userID.Hex()); err != nil {
		return nil, err
	}
	return &w, nil
}
