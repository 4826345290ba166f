// internal/store/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/store"
)

// Store implements store.Store on top of a GORM postgres connection. The
// connection must be opened with TranslateError enabled so unique-constraint
// violations surface as gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Brands() store.BrandStore             { return &brandStore{db: s.db} }
func (s *Store) Products() store.ProductStore         { return &productStore{db: s.db} }
func (s *Store) LicenseKeys() store.LicenseKeyStore   { return &licenseKeyStore{db: s.db} }
func (s *Store) Licenses() store.LicenseStore         { return &licenseStore{db: s.db} }
func (s *Store) Activations() store.ActivationStore   { return &activationStore{db: s.db} }
func (s *Store) Users() store.UserStore               { return &userStore{db: s.db} }
func (s *Store) AuditLogs() store.AuditLogStore       { return &auditLogStore{db: s.db} }

func (s *Store) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// WithLicenseLock opens a transaction and takes a FOR UPDATE lock on the
// license row before running fn, so concurrent seat checks for the same
// license serialize at the database. The lock is released when the
// transaction commits or rolls back.
func (s *Store) WithLicenseLock(ctx context.Context, licenseID uuid.UUID, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var license models.License
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&license, "id = ?", licenseID).Error; err != nil {
			return translate(err)
		}
		return fn(New(tx))
	})
}

// translate maps GORM errors onto the store sentinels so callers never
// import gorm.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return fmt.Errorf("postgres store: %w", err)
	}
}
