package library

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ProductStore persists products through gorm on the Database's pool.
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore wraps the pool of database in gorm and migrates the
// products table. A nil logger discards gorm output.
func NewProductStore(database *Database, logger gormLogger.Interface) (*ProductStore, error) {
	var dialector gorm.Dialector
	switch database.Driver() {
	case DriverSQLite:
		dialector = &sqlite.Dialector{DriverName: DriverSQLite, Conn: database.SQL()}
	case DriverPostgres, DriverPGX:
		dialector = postgres.New(postgres.Config{Conn: database.SQL()})
	case DriverMySQL:
		dialector = mysql.New(mysql.Config{Conn: database.SQL()})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", database.Driver())
	}

	if logger == nil {
		logger = gormLogger.Discard
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := db.AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("migrate products: %w", err)
	}
	return &ProductStore{db: db}, nil
}

func (p *ProductStore) ListProducts(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	if err := p.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (p *ProductStore) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := p.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

func (p *ProductStore) AddProduct(ctx context.Context, np NewProduct) (uint, error) {
	product := Product{Name: np.Name, Description: np.Description}
	if np.Price != nil {
		product.Price = *np.Price
	}
	if err := p.db.WithContext(ctx).Create(&product).Error; err != nil {
		return 0, fmt.Errorf("add product: %w", err)
	}
	return product.ID, nil
}

func (p *ProductStore) UpdateProduct(ctx context.Context, id uint, u ProductUpdate) error {
	if u.Empty() {
		return ErrNothingToUpdate
	}
	res := p.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(u.columns())
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (p *ProductStore) DeleteProduct(ctx context.Context, id uint) error {
	res := p.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
