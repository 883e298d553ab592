package library

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	gormLogger "gorm.io/gorm/logger"
)

const (
	msgBookRequired    = "Title, author and total_copies are required"
	msgBookInvalid     = "Title and author must not be empty and total_copies must be positive"
	msgProductRequired = "Name and price are required"
	msgProductInvalid  = "Name must not be empty and price must not be negative"
	msgUserNameBlank   = "user_name must not be blank when provided"
)

// LibraryManager is a thin façade over the stores, keeping handler code
// simple. Input is validated here before any store call.
type LibraryManager struct {
	db       *Database
	products *ProductStore
	validate *validator.Validate
}

// NewLibraryManager opens the store for driver/dsn, creating both schemas.
func NewLibraryManager(ctx context.Context, driver, dsn string, logger gormLogger.Interface) (*LibraryManager, error) {
	db, err := NewDatabase(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	products, err := NewProductStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &LibraryManager{db: db, products: products, validate: newValidator()}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

func (lm *LibraryManager) Ping(ctx context.Context) error { return lm.db.Ping(ctx) }

func (lm *LibraryManager) check(v interface{}, message string) error {
	err := lm.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Message: message, Fields: fields}
}

// checkUpdate validates the values of a partial update and reports every
// required field that was sent as null.
func (lm *LibraryManager) checkUpdate(values interface{}, nulls []string, message string) error {
	err := lm.check(values, message)
	if len(nulls) == 0 {
		return err
	}
	verr := &ValidationError{Message: message, Fields: make(map[string]string, len(nulls))}
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	for _, name := range nulls {
		verr.Fields[name] = "required"
	}
	return verr
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) ListBooks(ctx context.Context) ([]*Book, error) {
	return lm.db.ListBooks(ctx)
}

func (lm *LibraryManager) GetBook(ctx context.Context, id int64) (*Book, error) {
	return lm.db.GetBook(ctx, id)
}

func (lm *LibraryManager) BookHistory(ctx context.Context, id int64) ([]*BorrowRecord, error) {
	return lm.db.BookHistory(ctx, id)
}

// AddBook validates nb and stores it, returning the new id.
func (lm *LibraryManager) AddBook(ctx context.Context, nb NewBook) (int64, error) {
	nb.Title = strings.TrimSpace(nb.Title)
	nb.Author = strings.TrimSpace(nb.Author)
	if err := lm.check(nb, msgBookRequired); err != nil {
		return 0, err
	}
	return lm.db.AddBook(ctx, nb)
}

// UpdateBook applies a partial update. Changing total_copies also resets
// available_copies to the new total.
func (lm *LibraryManager) UpdateBook(ctx context.Context, id int64, u BookUpdate) error {
	if u.Empty() {
		return ErrNothingToUpdate
	}
	u.Title.Value = trimPtr(u.Title.Value)
	u.Author.Value = trimPtr(u.Author.Value)
	if err := lm.checkUpdate(u.values(), u.nulls(), msgBookInvalid); err != nil {
		return err
	}
	return lm.db.UpdateBook(ctx, id, u)
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id int64) error {
	return lm.db.DeleteBook(ctx, id)
}

// ------------------ Circulation ------------------

// IssueBook checks a copy out. Without a userName no ledger entry is written.
func (lm *LibraryManager) IssueBook(ctx context.Context, id int64, userName Optional[string]) error {
	name, err := borrower(userName)
	if err != nil {
		return err
	}
	return lm.db.IssueBook(ctx, id, name)
}

// ReturnBook checks a copy back in. Without a userName the ledger is left
// as is.
func (lm *LibraryManager) ReturnBook(ctx context.Context, id int64, userName Optional[string]) error {
	name, err := borrower(userName)
	if err != nil {
		return err
	}
	return lm.db.ReturnBook(ctx, id, name)
}

// borrower resolves the user_name of an issue or return. An omitted key is
// an untracked loan; a key that was sent must name someone.
func borrower(userName Optional[string]) (string, error) {
	if !userName.Present {
		return "", nil
	}
	if userName.Value != nil {
		if name := strings.TrimSpace(*userName.Value); name != "" {
			return name, nil
		}
	}
	return "", &ValidationError{
		Message: msgUserNameBlank,
		Fields:  map[string]string{"user_name": "required"},
	}
}

// ------------------ Product helpers ------------------

func (lm *LibraryManager) ListProducts(ctx context.Context) ([]Product, error) {
	return lm.products.ListProducts(ctx)
}

func (lm *LibraryManager) GetProduct(ctx context.Context, id uint) (*Product, error) {
	return lm.products.GetProduct(ctx, id)
}

func (lm *LibraryManager) AddProduct(ctx context.Context, np NewProduct) (uint, error) {
	np.Name = strings.TrimSpace(np.Name)
	if err := lm.check(np, msgProductRequired); err != nil {
		return 0, err
	}
	return lm.products.AddProduct(ctx, np)
}

func (lm *LibraryManager) UpdateProduct(ctx context.Context, id uint, u ProductUpdate) error {
	if u.Empty() {
		return ErrNothingToUpdate
	}
	u.Name = trimPtr(u.Name)
	if err := lm.check(u, msgProductInvalid); err != nil {
		return err
	}
	return lm.products.UpdateProduct(ctx, id, u)
}

func (lm *LibraryManager) DeleteProduct(ctx context.Context, id uint) error {
	return lm.products.DeleteProduct(ctx, id)
}

// ------------------ Utilities ------------------

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
