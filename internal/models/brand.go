// internal/models/brand.go
package models

// Brand is a tenant issuing license keys to its customers. The API
// credential pair is generated once at creation and only ever replaced
// wholesale by a rotation; it is never partially updated.
type Brand struct {
	BaseModel
	Name      string `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Slug      string `json:"slug" gorm:"uniqueIndex;size:100;not null"`
	APIKey    string `json:"api_key" gorm:"uniqueIndex;size:64;not null"`
	APISecret string `json:"-" gorm:"size:128;not null"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Products    []Product    `json:"products,omitempty" gorm:"foreignKey:BrandID"`
	LicenseKeys []LicenseKey `json:"-" gorm:"foreignKey:BrandID"`
}
