// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/utils"
)

// Sentinel errors shared by all store implementations. Services translate
// them into domain errors; implementations never leak driver errors for
// these two cases.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store aggregates the entity stores plus the two transaction helpers the
// services need. There are two implementations: postgres (GORM) for the
// server and memory for tests.
type Store interface {
	Brands() BrandStore
	Products() ProductStore
	LicenseKeys() LicenseKeyStore
	Licenses() LicenseStore
	Activations() ActivationStore
	Users() UserStore
	AuditLogs() AuditLogStore

	// Atomic runs fn against a store view whose writes commit or roll back
	// together.
	Atomic(ctx context.Context, fn func(Store) error) error

	// WithLicenseLock serializes fn against all other WithLicenseLock calls
	// for the same license: the postgres implementation takes a row-level
	// FOR UPDATE lock inside a transaction, the memory implementation holds
	// a per-license mutex. This is the seat-allocation critical section and
	// must wrap exactly the check-then-write sequence, nothing wider.
	WithLicenseLock(ctx context.Context, licenseID uuid.UUID, fn func(Store) error) error
}

type BrandStore interface {
	Create(ctx context.Context, brand *models.Brand) error
	Update(ctx context.Context, brand *models.Brand) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Brand, error)
	GetByNameOrSlug(ctx context.Context, name, slug string) (*models.Brand, error)
	List(ctx context.Context, params utils.PaginationParams) ([]models.Brand, int64, error)
}

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error)
	GetActiveBySlug(ctx context.Context, brandID uuid.UUID, slug string) (*models.Product, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID, activeOnly bool) ([]models.Product, error)
	List(ctx context.Context, brandID *uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error)
}

type LicenseKeyStore interface {
	Create(ctx context.Context, key *models.LicenseKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LicenseKey, error)
	GetActiveByKey(ctx context.Context, key string) (*models.LicenseKey, error)
	GetByKeyForBrand(ctx context.Context, brandID uuid.UUID, key string) (*models.LicenseKey, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID, params utils.PaginationParams) ([]models.LicenseKey, int64, error)
	// ListByCustomerEmail matches case-insensitively across all brands.
	ListByCustomerEmail(ctx context.Context, email string) ([]models.LicenseKey, error)
}

type LicenseStore interface {
	Create(ctx context.Context, license *models.License) error
	Update(ctx context.Context, license *models.License) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	GetByKeyAndProduct(ctx context.Context, licenseKeyID, productID uuid.UUID) (*models.License, error)
	ListByKey(ctx context.Context, licenseKeyID uuid.UUID) ([]models.License, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type ActivationStore interface {
	Create(ctx context.Context, activation *models.Activation) error
	Update(ctx context.Context, activation *models.Activation) error
	GetByLicenseAndInstance(ctx context.Context, licenseID uuid.UUID, instanceID string) (*models.Activation, error)
	CountActiveByLicense(ctx context.Context, licenseID uuid.UUID) (int64, error)
	ListActiveByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.Activation, error)
	// TouchActive stamps last_check_at on active activations of the given
	// licenses matching the instance. Best effort; not part of the seat
	// accounting invariant.
	TouchActive(ctx context.Context, licenseIDs []uuid.UUID, instanceID string, at time.Time) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type AuditLogStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params utils.PaginationParams) ([]models.AuditLog, int64, error)
}
