package models

// Catalog event operations.
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is published to the catalog topic after every successful write.
type ProductEvent struct {
	EventID   string    `json:"event_id"`   // Unique identifier of the event
	Timestamp int64     `json:"timestamp"`  // Unix time in seconds
	Operation string    `json:"operation"`  // One of the Product* operations
	ProductID int64     `json:"product_id"` // Affected product
	BrandName string    `json:"brand_name"` // Brand at the time of the event
	Images    ImageList `json:"images"`     // Image URLs after the write, empty on delete
}
