package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-catalog/internal/images"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=product.go -destination=product_mock.go -package=services

var (
	// ErrProductNotFound is returned when the product id does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// ProductReader defines catalog read operations.
type ProductReader interface {
	List(ctx context.Context) ([]models.ProductDB, error)
	ListByBrand(ctx context.Context, brand string) ([]models.ProductDB, error)
	GetByID(ctx context.Context, id int64) (*models.ProductDB, error)
}

// ProductWriter defines catalog write operations.
type ProductWriter interface {
	Create(ctx context.Context, in models.ProductInput, images models.ImageList) (*models.ProductDB, error)
	Update(ctx context.Context, id int64, in models.ProductInput, images models.ImageList) (*models.ProductDB, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ImageStore processes uploads and removes stored files.
type ImageStore interface {
	Process(ctx context.Context, uploads []images.Upload) ([]images.Processed, error)
	Cleanup(filenames ...string)
	DeleteURLs(urls ...string)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductService orchestrates catalog rows and their image files.
type ProductService struct {
	reader      ProductReader
	writer      ProductWriter
	images      ImageStore
	kafkaWriter KafkaWriter
}

// NewProductService creates a new ProductService. kafkaWriter may be nil.
func NewProductService(reader ProductReader, writer ProductWriter, store ImageStore, kafkaWriter KafkaWriter) *ProductService {
	return &ProductService{
		reader:      reader,
		writer:      writer,
		images:      store,
		kafkaWriter: kafkaWriter,
	}
}

// List returns every product, newest first.
func (s *ProductService) List(ctx context.Context) ([]models.ProductDB, error) {
	products, err := s.reader.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list products", "error", err)
		return nil, err
	}
	return products, nil
}

// ListByBrand returns the products of one brand.
func (s *ProductService) ListByBrand(ctx context.Context, brand string) ([]models.ProductDB, error) {
	products, err := s.reader.ListByBrand(ctx, brand)
	if err != nil {
		logger.Log.Errorw("failed to list products by brand", "brand", brand, "error", err)
		return nil, err
	}
	return products, nil
}

// Get returns one product or ErrProductNotFound.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.ProductDB, error) {
	product, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get product", "id", id, "error", err)
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create processes the uploads and inserts the product. If the insert fails
// the processed files are deleted.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput, uploads []images.Upload) (*models.ProductDB, error) {
	if err := images.Validate(uploads); err != nil {
		return nil, err
	}

	processed, err := s.processUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	product, err := s.writer.Create(ctx, in, urlsOf(processed))
	if err != nil {
		logger.Log.Errorw("failed to create product", "error", err)
		s.cleanup(processed)
		return nil, err
	}

	s.publishEvent(ctx, models.ProductCreated, product)
	return product, nil
}

// Update overwrites the supplied fields. New uploads replace the stored image
// list: new files are written, the row is updated, then the old files are deleted.
// Without uploads the stored list is kept.
func (s *ProductService) Update(ctx context.Context, id int64, in models.ProductInput, uploads []images.Upload) (*models.ProductDB, error) {
	if err := images.Validate(uploads); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	imageURLs := existing.Images
	processed, err := s.processUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}
	if len(processed) > 0 {
		imageURLs = urlsOf(processed)
	}

	product, err := s.writer.Update(ctx, id, in, imageURLs)
	if err == nil && product == nil {
		err = ErrProductNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to update product", "id", id, "error", err)
		s.cleanup(processed)
		return nil, err
	}

	if len(processed) > 0 && len(existing.Images) > 0 {
		s.images.DeleteURLs(existing.Images...)
	}

	s.publishEvent(ctx, models.ProductUpdated, product)
	return product, nil
}

// Delete removes the product's image files and then its row.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if len(existing.Images) > 0 {
		s.images.DeleteURLs(existing.Images...)
	}

	deleted, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete product", "id", id, "error", err)
		return err
	}
	if !deleted {
		return ErrProductNotFound
	}

	s.publishEvent(ctx, models.ProductDeleted, &models.ProductDB{ID: existing.ID, BrandName: existing.BrandName})
	return nil
}

func (s *ProductService) processUploads(ctx context.Context, uploads []images.Upload) ([]images.Processed, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	processed, err := s.images.Process(ctx, uploads)
	if err != nil {
		logger.Log.Errorw("failed to process uploads", "count", len(uploads), "error", err)
		return nil, err
	}
	return processed, nil
}

// publishEvent publishes a catalog event to Kafka. Failures are logged only.
func (s *ProductService) publishEvent(ctx context.Context, operation string, p *models.ProductDB) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "operation", operation, "product_id", p.ID)
		return
	}

	urls := p.Images
	if urls == nil {
		urls = models.ImageList{}
	}
	event := models.ProductEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Operation: operation,
		ProductID: p.ID,
		BrandName: p.BrandName,
		Images:    urls,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal catalog event", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(p.ID, 10)),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish catalog event", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("Catalog event published", "event_id", event.EventID, "operation", operation, "product_id", p.ID)
	}
}

// cleanup removes files written for a write that did not go through.
func (s *ProductService) cleanup(processed []images.Processed) {
	if len(processed) == 0 {
		return
	}
	s.images.Cleanup(filenamesOf(processed)...)
}

func urlsOf(processed []images.Processed) models.ImageList {
	urls := make(models.ImageList, 0, len(processed))
	for _, p := range processed {
		urls = append(urls, p.URL())
	}
	return urls
}

func filenamesOf(processed []images.Processed) []string {
	names := make([]string, 0, len(processed))
	for _, p := range processed {
		names = append(names, p.Filename)
	}
	return names
}
