// internal/store/memory/store.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
	"github.com/keyward/keyward/internal/utils"
)

// Store is an in-memory store.Store used by tests. It enforces the same
// uniqueness rules as the postgres schema and provides real mutual
// exclusion in WithLicenseLock via a per-license mutex, so concurrency
// tests exercise the same serialization the database gives the server.
type Store struct {
	mu sync.RWMutex

	brands      map[uuid.UUID]models.Brand
	products    map[uuid.UUID]models.Product
	licenseKeys map[uuid.UUID]models.LicenseKey
	licenses    map[uuid.UUID]models.License
	activations map[uuid.UUID]models.Activation
	users       map[uuid.UUID]models.User
	auditLogs   []models.AuditLog

	lockMu       sync.Mutex
	licenseLocks map[uuid.UUID]*sync.Mutex
}

func New() *Store {
	return &Store{
		brands:       make(map[uuid.UUID]models.Brand),
		products:     make(map[uuid.UUID]models.Product),
		licenseKeys:  make(map[uuid.UUID]models.LicenseKey),
		licenses:     make(map[uuid.UUID]models.License),
		activations:  make(map[uuid.UUID]models.Activation),
		users:        make(map[uuid.UUID]models.User),
		licenseLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Brands() store.BrandStore           { return &brandStore{s: s} }
func (s *Store) Products() store.ProductStore       { return &productStore{s: s} }
func (s *Store) LicenseKeys() store.LicenseKeyStore { return &licenseKeyStore{s: s} }
func (s *Store) Licenses() store.LicenseStore       { return &licenseStore{s: s} }
func (s *Store) Activations() store.ActivationStore { return &activationStore{s: s} }
func (s *Store) Users() store.UserStore             { return &userStore{s: s} }
func (s *Store) AuditLogs() store.AuditLogStore     { return &auditLogStore{s: s} }

// Atomic runs fn against the same store. Rollback is not simulated;
// callers validate before writing, so a failed fn leaves no partial state
// in practice.
func (s *Store) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *Store) WithLicenseLock(ctx context.Context, licenseID uuid.UUID, fn func(store.Store) error) error {
	s.lockMu.Lock()
	lock, ok := s.licenseLocks[licenseID]
	if !ok {
		lock = &sync.Mutex{}
		s.licenseLocks[licenseID] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	_, exists := s.licenses[licenseID]
	s.mu.RUnlock()
	if !exists {
		return store.ErrNotFound
	}

	return fn(s)
}

// prepare fills the fields the postgres schema defaults would fill.
func (s *Store) prepare(base *models.BaseModel) {
	now := time.Now()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// pageBounds clamps a pagination window to the slice length.
func pageBounds(total int, params utils.PaginationParams) (int, int) {
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return start, end
}

// createdBefore orders records by creation time with the ID as a
// deterministic tie-breaker.
func createdBefore(aCreated time.Time, aID uuid.UUID, bCreated time.Time, bID uuid.UUID) bool {
	if aCreated.Equal(bCreated) {
		return aID.String() < bID.String()
	}
	return aCreated.Before(bCreated)
}
