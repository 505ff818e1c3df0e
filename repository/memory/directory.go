package memory

import (
	"context"
	"fmt"
	"sync"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory is a seedable organisational directory.
type Directory struct {
	mu          sync.RWMutex
	departments []models.Department
	wards       map[primitive.ObjectID]models.Ward
	councillors map[primitive.ObjectID]models.Councillor
	mcAdmins    map[primitive.ObjectID]models.MCAdminProfile
	workers     map[primitive.ObjectID]models.WorkerProfile
}

func NewDirectory() *Directory {
	return &Directory{
		wards:       make(map[primitive.ObjectID]models.Ward),
		councillors: make(map[primitive.ObjectID]models.Councillor),
		mcAdmins:    make(map[primitive.ObjectID]models.MCAdminProfile),
		workers:     make(map[primitive.ObjectID]models.WorkerProfile),
	}
}

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// AddDepartment registers d, assigning an id if it has none.
func (d *Directory) AddDepartment(dept models.Department) models.Department {
	ensureID(&dept.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments = append(d.departments, dept)
	return dept
}

func (d *Directory) AddWard(w models.Ward) models.Ward {
	ensureID(&w.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wards[w.ID] = w
	return w
}

func (d *Directory) AddCouncillor(c models.Councillor) models.Councillor {
	ensureID(&c.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.councillors[c.ID] = c
	return c
}

func (d *Directory) AddMCAdmin(mc models.MCAdminProfile) models.MCAdminProfile {
	ensureID(&mc.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mcAdmins[mc.ID] = mc
	return mc
}

func (d *Directory) AddWorker(w models.WorkerProfile) models.WorkerProfile {
	ensureID(&w.ID)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers[w.ID] = w
	return w
}

func notFound(what string) error { return fmt.Errorf("%s: %w", what, models.ErrNotFound) }

func (d *Directory) DepartmentByID(_ context.Context, id primitive.ObjectID) (*models.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, dept := range d.departments {
		if dept.ID == id {
			return &dept, nil
		}
	}
	return nil, notFound("department " + id.Hex())
}

// DepartmentForCategory returns the first registered match.
func (d *Directory) DepartmentForCategory(_ context.Context, category models.IssueCategory, mcAdminID *primitive.ObjectID) (*models.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, dept := range d.departments {
		if dept.Name != category {
			continue
		}
		if mcAdminID != nil && dept.MCAdminID != *mcAdminID {
			continue
		}
		return &dept, nil
	}
	return nil, notFound("department for category " + string(category))
}

func (d *Directory) WardByID(_ context.Context, id primitive.ObjectID) (*models.Ward, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.wards[id]
	if !ok {
		return nil, notFound("ward " + id.Hex())
	}
	return &w, nil
}

func (d *Directory) CouncillorByID(_ context.Context, id primitive.ObjectID) (*models.Councillor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.councillors[id]
	if !ok {
		return nil, notFound("councillor " + id.Hex())
	}
	return &c, nil
}

func (d *Directory) CouncillorByUser(_ context.Context, userID primitive.ObjectID) (*models.Councillor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.councillors {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, notFound("councillor for user " + userID.Hex())
}

func (d *Directory) MCAdminByUser(_ context.Context, userID primitive.ObjectID) (*models.MCAdminProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, mc := range d.mcAdmins {
		if mc.UserID == userID {
			return &mc, nil
		}
	}
	return nil, notFound("MC admin for user " + userID.Hex())
}

func (d *Directory) WorkerByID(_ context.Context, id primitive.ObjectID) (*models.WorkerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.workers[id]
	if !ok {
		return nil, notFound("worker " + id.Hex())
	}
	return &w, nil
}

func (d *Directory) WorkerByUser(_ context.Context, userID primitive.ObjectID) (*models.WorkerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, w := range d.workers {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, notFound("worker for user " + userID.Hex())
}
