// internal/models/license.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLicenseCancelled is returned by lifecycle transitions that are not
// allowed to leave the cancelled state.
var ErrLicenseCancelled = errors.New("license is cancelled")

// LicenseKey is the customer-facing credential. The key token is generated
// once and never regenerated; deactivating the key revokes usability of all
// its licenses without deleting history.
type LicenseKey struct {
	BaseModel
	Key           string    `json:"key" gorm:"uniqueIndex;size:64;not null"`
	BrandID       uuid.UUID `json:"brand_id" gorm:"type:uuid;not null;index"`
	CustomerEmail string    `json:"customer_email" gorm:"size:255;not null;index"`
	CustomerName  string    `json:"customer_name" gorm:"size:255"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	Brand    *Brand    `json:"-" gorm:"foreignKey:BrandID"`
	Licenses []License `json:"licenses,omitempty" gorm:"foreignKey:LicenseKeyID;constraint:OnDelete:CASCADE"`
}

// License entitles one license key to one product. The (license_key,
// product) pair is unique. Expiry is a derived predicate over expires_at,
// never a stored status; cancelled is terminal.
type License struct {
	BaseModel
	LicenseKeyID uuid.UUID     `json:"license_key_id" gorm:"type:uuid;not null;uniqueIndex:idx_licenses_key_product"`
	ProductID    uuid.UUID     `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_licenses_key_product"`
	Status       LicenseStatus `json:"status" gorm:"type:varchar(20);default:'valid';index"`
	ExpiresAt    time.Time     `json:"expires_at" gorm:"not null;index"`
	SeatLimit    int           `json:"seat_limit" gorm:"default:1"`

	// Relationships
	LicenseKey  *LicenseKey  `json:"-" gorm:"foreignKey:LicenseKeyID"`
	Product     *Product     `json:"-" gorm:"foreignKey:ProductID"`
	Activations []Activation `json:"activations,omitempty" gorm:"foreignKey:LicenseID;constraint:OnDelete:CASCADE"`
}

func (l *License) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// IsValid reports whether the license can be used right now. Suspended and
// cancelled licenses are invalid regardless of expiry.
func (l *License) IsValid() bool {
	return l.Status == LicenseStatusValid && !l.IsExpired()
}

// Renew extends the license by the given number of days: from now when the
// license has already expired, from the current expiry otherwise. Renewal
// clears a suspension but never revives a cancelled license.
func (l *License) Renew(days int) error {
	if l.Status == LicenseStatusCancelled {
		return ErrLicenseCancelled
	}

	if l.IsExpired() {
		l.ExpiresAt = time.Now().AddDate(0, 0, days)
	} else {
		l.ExpiresAt = l.ExpiresAt.AddDate(0, 0, days)
	}
	l.Status = LicenseStatusValid
	return nil
}

func (l *License) Suspend() error {
	if l.Status == LicenseStatusCancelled {
		return ErrLicenseCancelled
	}
	l.Status = LicenseStatusSuspended
	return nil
}

// Resume returns a suspended license to valid. It reports whether a
// transition happened; any other state is left unchanged.
func (l *License) Resume() bool {
	if l.Status != LicenseStatusSuspended {
		return false
	}
	l.Status = LicenseStatusValid
	return true
}

func (l *License) Cancel() {
	l.Status = LicenseStatusCancelled
}

// SeatsAvailable returns the remaining seat count given the current number
// of active activations, or nil when the license is unlimited.
func (l *License) SeatsAvailable(seatsUsed int64) *int64 {
	if l.SeatLimit == 0 {
		return nil
	}
	remaining := int64(l.SeatLimit) - seatsUsed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Activation is one instance consuming a seat of a license. The (license,
// instance_id) pair is unique: reactivating an instance reuses its row
// instead of creating a duplicate.
type Activation struct {
	BaseModel
	LicenseID     uuid.UUID  `json:"license_id" gorm:"type:uuid;not null;uniqueIndex:idx_activations_license_instance"`
	InstanceID    string     `json:"instance_id" gorm:"size:255;not null;uniqueIndex:idx_activations_license_instance"`
	InstanceName  string     `json:"instance_name" gorm:"size:255"`
	Metadata      JSONB      `json:"metadata" gorm:"type:jsonb"`
	IsActive      bool       `json:"is_active" gorm:"default:true;index"`
	ActivatedAt   time.Time  `json:"activated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
	LastCheckAt   *time.Time `json:"last_check_at"`

	// Relationships
	License *License `json:"-" gorm:"foreignKey:LicenseID"`
}

func (a *Activation) Deactivate() {
	now := time.Now()
	a.IsActive = false
	a.DeactivatedAt = &now
}

// Reactivate flips the row back to active. The original activation
// timestamp is preserved; only the deactivation marker is cleared.
func (a *Activation) Reactivate() {
	a.IsActive = true
	a.DeactivatedAt = nil
}

func (a *Activation) RecordCheck() {
	now := time.Now()
	a.LastCheckAt = &now
}
