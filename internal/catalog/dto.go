package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// ProductSummary is the public projection of a product.
type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	StoreID     uuid.UUID       `json:"store_id"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductList wraps one page of products plus the page metadata.
type ProductList struct {
	Products []ProductSummary `json:"products"`
	Page     pagination.Page  `json:"page"`
}

// CategorySummary is the public projection of a category.
type CategorySummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// NewProductSummary projects a product model into its public shape.
func NewProductSummary(product *models.Product) ProductSummary {
	return ProductSummary{
		ID:          product.ID,
		StoreID:     product.StoreID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		ImageURL:    product.ImageURL,
		CreatedAt:   product.CreatedAt,
	}
}

func newProductSummaries(products []models.Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for i := range products {
		out = append(out, NewProductSummary(&products[i]))
	}
	return out
}

// NewCategorySummary projects a category model into its public shape.
func NewCategorySummary(category *models.Category) CategorySummary {
	return CategorySummary{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}
