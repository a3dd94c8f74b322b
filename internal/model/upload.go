package model

import "time"

// Category is the fixed slot an uploaded file belongs to.
type Category string

const (
	CategoryDrivingLicense       Category = "driving_license"
	CategoryRC                   Category = "rc"
	CategoryPollutionCertificate Category = "pollution_certificate"
)

// Categories lists every accepted Category in display order.
var Categories = []Category{CategoryDrivingLicense, CategoryRC, CategoryPollutionCertificate}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// UploadedFile is the metadata of a binary stored under documents/<category>/<name>.
// Several records may share one StoragePath when the same name is uploaded twice.
type UploadedFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	URL         string    `json:"url"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
