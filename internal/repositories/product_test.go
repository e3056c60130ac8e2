package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/stretchr/testify/assert"
)

var productRowColumns = []string{"id", "brand_name", "colors", "images", "fabric", "sizes", "description", "created_at"}

func strPtr(s string) *string { return &s }

func TestProductReadRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM products ORDER BY created_at DESC, id DESC`).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(2, "Levi's", "blue", `["/uploads/a.jpg"]`, "denim", "M,L", "slim", now).
			AddRow(1, "Lee", nil, `[]`, nil, nil, nil, now))

	products, err := NewProductReadRepository(db).List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, models.ImageList{"/uploads/a.jpg"}, products[0].Images)
	assert.Equal(t, strPtr("blue"), products[0].Colors)
	assert.Nil(t, products[1].Colors)
	assert.Equal(t, models.ImageList{}, products[1].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductReadRepository_ListEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM products WHERE brand_name = \$1`).
		WithArgs("Nobody").
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	products, err := NewProductReadRepository(db).ListByBrand(context.Background(), "Nobody")
	assert.NoError(t, err)
	assert.NotNil(t, products, "empty listing must encode as [] not null")
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductReadRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(productRowColumns).
				AddRow(3, "Wrangler", nil, `["/uploads/x.jpg","/uploads/y.jpg"]`, nil, nil, nil, time.Now()))

		p, err := NewProductReadRepository(db).GetByID(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, "Wrangler", p.BrandName)
		assert.Equal(t, models.ImageList{"/uploads/x.jpg", "/uploads/y.jpg"}, p.Images)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		p, err := NewProductReadRepository(db).GetByID(ctx, 999)
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestProductWriteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	in := models.ProductInput{BrandName: strPtr("Levi's"), Fabric: strPtr("denim")}
	images := models.ImageList{"/uploads/a.jpg"}

	mock.ExpectQuery(`INSERT INTO products \(brand_name, colors, images, fabric, sizes, description\)`).
		WithArgs("Levi's", nil, `["/uploads/a.jpg"]`, "denim", nil, nil).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(10, "Levi's", nil, `["/uploads/a.jpg"]`, "denim", nil, nil, now))

	p, err := NewProductWriteRepository(db).Create(context.Background(), in, images)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.Equal(t, images, p.Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductWriteRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`UPDATE products SET`).
			WithArgs(nil, strPtr("black"), `[]`, nil, nil, nil, int64(4)).
			WillReturnRows(sqlmock.NewRows(productRowColumns).
				AddRow(4, "Lee", "black", `[]`, nil, nil, nil, time.Now()))

		p, err := NewProductWriteRepository(db).Update(ctx, 4, models.ProductInput{Colors: strPtr("black")}, models.ImageList{})
		assert.NoError(t, err)
		assert.Equal(t, strPtr("black"), p.Colors)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`UPDATE products SET`).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		p, err := NewProductWriteRepository(db).Update(ctx, 4, models.ProductInput{}, nil)
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestProductWriteRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     bool
		wantErr  bool
	}{
		{name: "deleted", affected: 1, want: true},
		{name: "missing", affected: 0, want: false},
		{name: "error", execErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			exp := mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).WithArgs(int64(8))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			ok, err := NewProductWriteRepository(db).Delete(ctx, 8)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
