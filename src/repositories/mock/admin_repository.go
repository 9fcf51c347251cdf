package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/lms-admin/src/apperr"
	"github.com/khabaroff/lms-admin/src/models"
	"github.com/khabaroff/lms-admin/src/repositories"
)

// AdminRepository is a mock implementation of repositories.AdminRepository
type AdminRepository struct {
	// Function stubs that can be overridden in tests
	FindByEmailFunc     func(ctx context.Context, email string) (*models.AdminUser, error)
	FindByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	CreateFunc          func(ctx context.Context, admin *models.AdminUser) error
	CreateIfNoneFunc    func(ctx context.Context, admin *models.AdminUser) (bool, error)
	UpdatePasswordFunc  func(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error
	UpdateLastLoginFunc func(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
	CountFunc           func(ctx context.Context) (int64, error)
	ListFunc            func(ctx context.Context) ([]models.PublicAdminUser, error)

	// Call tracking
	mu    sync.Mutex
	Calls map[string][]interface{}
}

// NewAdminRepository creates a new mock admin repository
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *AdminRepository) record(name string, arg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name] = append(m.Calls[name], arg)
}

// CallCount returns how many times name was invoked
func (m *AdminRepository) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[name])
}

func (m *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	m.record("FindByEmail", email)
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, apperr.NotFound("admins.find_by_email", "admin user not found")
}

func (m *AdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	m.record("FindByID", id)
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, apperr.NotFound("admins.find_by_id", "admin user not found")
}

func (m *AdminRepository) FindByIDPublic(ctx context.Context, id uuid.UUID) (*models.PublicAdminUser, error) {
	m.record("FindByIDPublic", id)
	u, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (m *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	m.record("Create", admin)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, admin)
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	return nil
}

func (m *AdminRepository) CreateIfNone(ctx context.Context, admin *models.AdminUser) (bool, error) {
	m.record("CreateIfNone", admin)
	if m.CreateIfNoneFunc != nil {
		return m.CreateIfNoneFunc(ctx, admin)
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	return true, nil
}

func (m *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error {
	m.record("UpdatePassword", id)
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash, at)
	}
	return nil
}

func (m *AdminRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.record("UpdateLastLogin", id)
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("Delete", id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *AdminRepository) Count(ctx context.Context) (int64, error) {
	m.record("Count", nil)
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *AdminRepository) HasAdmins(ctx context.Context) (bool, error) {
	m.record("HasAdmins", nil)
	n, err := m.Count(ctx)
	return n > 0, err
}

func (m *AdminRepository) List(ctx context.Context) ([]models.PublicAdminUser, error) {
	m.record("List", nil)
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// Ensure AdminRepository implements the interface
var _ repositories.AdminRepository = (*AdminRepository)(nil)
