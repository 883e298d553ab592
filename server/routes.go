package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(app *fiber.App, lib Library, log *logrus.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := lib.Ping(c.UserContext()); err != nil {
			log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).SendString("unavailable")
		}
		return c.SendString("ok")
	})

	books := NewBooksController(lib, log)
	bookRoutes := app.Group("/books")
	bookRoutes.Get("/", books.ListBooks)
	bookRoutes.Post("/", books.CreateBook)
	bookRoutes.Get("/:id", books.GetBook)
	bookRoutes.Put("/:id", books.UpdateBook)
	bookRoutes.Delete("/:id", books.DeleteBook)
	bookRoutes.Get("/:id/history", books.BookHistory)
	bookRoutes.Post("/:id/issue", books.IssueBook)
	bookRoutes.Post("/:id/return", books.ReturnBook)

	products := NewProductsController(lib, log)
	productRoutes := app.Group("/products")
	productRoutes.Get("/", products.ListProducts)
	productRoutes.Post("/", products.CreateProduct)
	productRoutes.Get("/:id", products.GetProduct)
	productRoutes.Put("/:id", products.UpdateProduct)
	productRoutes.Delete("/:id", products.DeleteProduct)
}
