package library

import "time"

// Book represents catalog metadata and current availability of a title.
// AvailableCopies never leaves the range [0, TotalCopies].
type Book struct {
	ID              int64   `db:"id" json:"id"`
	Title           string  `db:"title" json:"title"`
	Author          string  `db:"author" json:"author"`
	Category        *string `db:"category" json:"category"`
	ISBN            *string `db:"isbn" json:"isbn"`
	TotalCopies     int     `db:"total_copies" json:"total_copies"`
	AvailableCopies int     `db:"available_copies" json:"available_copies"`
}

// BorrowRecord is one issue/return event in the borrowed_books ledger.
// ReturnedAt stays nil while the copy is out.
type BorrowRecord struct {
	ID         int64      `db:"id" json:"id"`
	BookID     int64      `db:"book_id" json:"book_id"`
	UserName   string     `db:"user_name" json:"user_name"`
	IssuedAt   time.Time  `db:"issued_at" json:"issued_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at"`
}

// NewBook is the payload accepted when adding a book.
type NewBook struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	Category    *string `json:"category"`
	ISBN        *string `json:"isbn"`
	TotalCopies int     `json:"total_copies" validate:"required,gt=0"`
}

// BookUpdate carries the fields of a partial update. Keys that were not sent
// are left untouched; category may be sent as null to clear it.
type BookUpdate struct {
	Title       Optional[string] `json:"title"`
	Author      Optional[string] `json:"author"`
	Category    Optional[string] `json:"category"`
	TotalCopies Optional[int]    `json:"total_copies"`
}

// Empty reports whether no field was provided.
func (u BookUpdate) Empty() bool {
	return !u.Title.Present && !u.Author.Present && !u.Category.Present && !u.TotalCopies.Present
}

// bookUpdateValues is the validated view of the non-null fields of a
// BookUpdate.
type bookUpdateValues struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Author      *string `json:"author" validate:"omitnil,min=1"`
	TotalCopies *int    `json:"total_copies" validate:"omitnil,gt=0"`
}

func (u BookUpdate) values() bookUpdateValues {
	return bookUpdateValues{Title: u.Title.Value, Author: u.Author.Value, TotalCopies: u.TotalCopies.Value}
}

// nulls lists the required columns the update tries to set to null.
func (u BookUpdate) nulls() []string {
	var names []string
	if u.Title.IsNull() {
		names = append(names, "title")
	}
	if u.Author.IsNull() {
		names = append(names, "author")
	}
	if u.TotalCopies.IsNull() {
		names = append(names, "total_copies")
	}
	return names
}

// columns maps the present fields onto book columns. Setting TotalCopies also
// overwrites available_copies, discarding copies currently on loan.
func (u BookUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{}, 5)
	if u.Title.Value != nil {
		cols["title"] = *u.Title.Value
	}
	if u.Author.Value != nil {
		cols["author"] = *u.Author.Value
	}
	if u.Category.Present {
		if u.Category.Value == nil {
			cols["category"] = nil
		} else {
			cols["category"] = *u.Category.Value
		}
	}
	if u.TotalCopies.Value != nil {
		cols["total_copies"] = *u.TotalCopies.Value
		cols["available_copies"] = *u.TotalCopies.Value
	}
	return cols
}

// Product is an unrelated catalog item served next to the books.
type Product struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Price       float64 `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Description string  `gorm:"column:description;type:text" json:"description"`
}

// TableName keeps the table name stable regardless of gorm naming rules.
func (Product) TableName() string {
	return "products"
}

// NewProduct is the payload accepted when adding a product.
type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Description string   `json:"description"`
}

// ProductUpdate carries the fields of a partial product update.
type ProductUpdate struct {
	Name        *string  `json:"name" validate:"omitnil,min=1"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Description *string  `json:"description"`
}

// Empty reports whether no field was provided.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Description == nil
}

func (u ProductUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{}, 3)
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	return cols
}
