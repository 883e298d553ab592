package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"library-lending/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Library is the set of operations the handlers need. *library.LibraryManager
// satisfies it.
type Library interface {
	Ping(ctx context.Context) error

	ListBooks(ctx context.Context) ([]*library.Book, error)
	GetBook(ctx context.Context, id int64) (*library.Book, error)
	BookHistory(ctx context.Context, id int64) ([]*library.BorrowRecord, error)
	AddBook(ctx context.Context, nb library.NewBook) (int64, error)
	UpdateBook(ctx context.Context, id int64, u library.BookUpdate) error
	DeleteBook(ctx context.Context, id int64) error
	IssueBook(ctx context.Context, id int64, userName library.Optional[string]) error
	ReturnBook(ctx context.Context, id int64, userName library.Optional[string]) error

	ListProducts(ctx context.Context) ([]library.Product, error)
	GetProduct(ctx context.Context, id uint) (*library.Product, error)
	AddProduct(ctx context.Context, np library.NewProduct) (uint, error)
	UpdateProduct(ctx context.Context, id uint, u library.ProductUpdate) error
	DeleteProduct(ctx context.Context, id uint) error
}

// Options tune the fiber app. Zero values pick the defaults.
type Options struct {
	RequestTimeout time.Duration
}

// New builds the fiber app with middleware and every route mounted.
func New(lib Library, log *logrus.Logger, opts Options) *fiber.App {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	app.Use(RequestContext(log, opts.RequestTimeout))
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())

	SetupRoutes(app, lib, log)
	return app
}

// errorHandler renders errors that escaped the handlers (unknown routes,
// recovered panics) in the same shape as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}
	return c.Status(code).JSON(ErrorResponse{Error: message})
}

// Run serves app on addr until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string, log *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
