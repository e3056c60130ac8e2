package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ProductDB represents a row of the products table
type ProductDB struct {
	ID          int64     `json:"id" db:"id"`                   // Primary key
	BrandName   string    `json:"brand_name" db:"brand_name"`   // Brand the product is listed under
	Colors      *string   `json:"colors" db:"colors"`           // Free-form color list
	Images      ImageList `json:"images" db:"images"`           // Ordered public image URLs
	Fabric      *string   `json:"fabric" db:"fabric"`           // Fabric description
	Sizes       *string   `json:"sizes" db:"sizes"`             // Free-form size list
	Description *string   `json:"description" db:"description"` // Long description
	CreatedAt   time.Time `json:"created_at" db:"created_at"`   // Creation timestamp
}

// ProductInput carries the writable product fields of a create or update request.
// A nil field was not supplied by the client.
type ProductInput struct {
	BrandName   *string `json:"brand_name" validate:"omitempty,max=255"`
	Colors      *string `json:"colors" validate:"omitempty,max=1024"`
	Fabric      *string `json:"fabric" validate:"omitempty,max=255"`
	Sizes       *string `json:"sizes" validate:"omitempty,max=1024"`
	Description *string `json:"description" validate:"omitempty,max=65535"`
}

// ImageList is an ordered list of image URLs stored as a JSON array in a text column.
type ImageList []string

// Value implements driver.Valuer.
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty text scan to an empty list.
func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported image list type %T", src)
	}

	if len(raw) == 0 {
		*l = ImageList{}
		return nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return fmt.Errorf("decode image list: %w", err)
	}
	if urls == nil {
		urls = []string{}
	}
	*l = urls
	return nil
}
