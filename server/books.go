package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"library-lending/library"
)

// BooksController serves the /books routes.
type BooksController struct {
	lib Library
	log *logrus.Logger
}

func NewBooksController(lib Library, log *logrus.Logger) *BooksController {
	return &BooksController{lib: lib, log: log}
}

type circulationRequest struct {
	UserName library.Optional[string] `json:"user_name"`
}

func (r circulationRequest) userName() string {
	if r.UserName.Value == nil {
		return ""
	}
	return *r.UserName.Value
}

// bookID parses :id. A malformed id can never match a row, so callers answer
// it the way they answer a missing book.
func bookID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil
}

func (bc *BooksController) ListBooks(c *fiber.Ctx) error {
	books, err := bc.lib.ListBooks(c.UserContext())
	if err != nil {
		return storeError(c, bc.log, err, "Failed to fetch books")
	}
	return c.Status(fiber.StatusOK).JSON(books)
}

func (bc *BooksController) GetBook(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Book not found")
	}
	book, err := bc.lib.GetBook(c.UserContext(), id)
	if err != nil {
		return storeError(c, bc.log, err, "Failed to fetch book")
	}
	return c.Status(fiber.StatusOK).JSON(book)
}

func (bc *BooksController) BookHistory(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		return c.Status(fiber.StatusOK).JSON([]*library.BorrowRecord{})
	}
	history, err := bc.lib.BookHistory(c.UserContext(), id)
	if err != nil {
		return storeError(c, bc.log, err, "Failed to fetch book history")
	}
	return c.Status(fiber.StatusOK).JSON(history)
}

func (bc *BooksController) CreateBook(c *fiber.Ctx) error {
	var req library.NewBook
	if err := c.BodyParser(&req); err != nil {
		bc.log.WithError(err).Debug("invalid create book body")
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	id, err := bc.lib.AddBook(c.UserContext(), req)
	if err != nil {
		return storeError(c, bc.log, err, "Failed to add book")
	}
	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{
		Message: "Book added successfully",
		ID:      id,
	})
}

func (bc *BooksController) UpdateBook(c *fiber.Ctx) error {
	var req library.BookUpdate
	if err := c.BodyParser(&req); err != nil {
		bc.log.WithError(err).Debug("invalid update book body")
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Empty() {
		return storeError(c, bc.log, library.ErrNothingToUpdate, "")
	}

	id, ok := bookID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Book not found")
	}
	if err := bc.lib.UpdateBook(c.UserContext(), id, req); err != nil {
		return storeError(c, bc.log, err, "Failed to update book")
	}
	return jsonMessage(c, fiber.StatusOK, "Book updated successfully")
}

func (bc *BooksController) DeleteBook(c *fiber.Ctx) error {
	id, ok := bookID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Book not found")
	}
	if err := bc.lib.DeleteBook(c.UserContext(), id); err != nil {
		return storeError(c, bc.log, err, "Failed to delete book")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (bc *BooksController) IssueBook(c *fiber.Ctx) error {
	req, err := parseCirculation(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id, ok := bookID(c)
	if !ok {
		return storeError(c, bc.log, library.ErrNotAvailable, "")
	}
	if err := bc.lib.IssueBook(c.UserContext(), id, req.UserName); err != nil {
		return storeError(c, bc.log, err, "Failed to issue book")
	}
	bc.log.WithFields(logrus.Fields{"book_id": id, "user_name": req.userName()}).Info("book issued")
	return jsonMessage(c, fiber.StatusOK, "Book issued successfully")
}

func (bc *BooksController) ReturnBook(c *fiber.Ctx) error {
	req, err := parseCirculation(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id, ok := bookID(c)
	if !ok {
		return storeError(c, bc.log, library.ErrAllReturned, "")
	}
	if err := bc.lib.ReturnBook(c.UserContext(), id, req.UserName); err != nil {
		return storeError(c, bc.log, err, "Failed to return book")
	}
	bc.log.WithFields(logrus.Fields{"book_id": id, "user_name": req.userName()}).Info("book returned")
	return jsonMessage(c, fiber.StatusOK, "Book returned successfully")
}

// parseCirculation reads the optional {user_name} body of issue/return.
func parseCirculation(c *fiber.Ctx) (circulationRequest, error) {
	var req circulationRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := c.BodyParser(&req)
	return req, err
}
