package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/znasser/storefront/internal/logging"
	"github.com/znasser/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const topic = "product_events"

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// Indexer mirrors products into the search index. Both it and the
// publisher are optional; without them the catalog is DB-only.
type Indexer interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uint) error
}

type Service struct {
	Repo     *GormRepo
	Index    Indexer
	Producer EventPublisher
}

type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
	Count       uint     `json:"count"`
}

type UpdateProductInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Images      *[]string `json:"images"`
	Colors      *[]string `json:"colors"`
	Sizes       *[]string `json:"sizes"`
	Count       *uint     `json:"count"`
}

func (svc *Service) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	return svc.Repo.ListProducts(ctx, limit, offset)
}

func (svc *Service) GetBySlug(ctx context.Context, s string) (*models.Product, error) {
	p, err := svc.Repo.GetBySlug(ctx, s)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, s)
	}
	return p, err
}

func (svc *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := svc.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return p, err
}

func (svc *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	s, err := svc.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Slug:        s,
		Description: in.Description,
		Price:       in.Price,
		Images:      in.Images,
		Colors:      in.Colors,
		Sizes:       in.Sizes,
		Count:       in.Count,
	}
	if err := svc.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	svc.index(ctx, *p)
	svc.publish(ctx, fmt.Sprint(p.ID), map[string]any{
		"type":      "product_created",
		"productID": p.ID,
		"name":      p.Name,
		"slug":      p.Slug,
	})
	return p, nil
}

// UpdateProduct patches the provided fields. The slug stays stable across
// renames so shop links keep working.
func (svc *Service) UpdateProduct(ctx context.Context, id uint, in UpdateProductInput) (*models.Product, error) {
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if in.Name != nil && *in.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	p, err := svc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	if in.Colors != nil {
		p.Colors = *in.Colors
	}
	if in.Sizes != nil {
		p.Sizes = *in.Sizes
	}
	if in.Count != nil {
		p.Count = *in.Count
	}

	if err := svc.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	svc.index(ctx, *p)
	svc.publish(ctx, fmt.Sprint(p.ID), map[string]any{
		"type":      "product_updated",
		"productID": p.ID,
		"name":      p.Name,
	})
	return p, nil
}

func (svc *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := svc.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return err
	}

	if svc.Index != nil {
		if err := svc.Index.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search deindex error", "productID", id, "error", err)
		}
	}
	svc.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (svc *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		exists, err := svc.Repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (svc *Service) index(ctx context.Context, p models.Product) {
	if svc.Index == nil {
		return
	}
	if err := svc.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search index error", "productID", p.ID, "error", err)
	}
}

func (svc *Service) publish(ctx context.Context, key string, event map[string]any) {
	if svc.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := svc.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
