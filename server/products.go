package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"library-lending/library"
)

// ProductsController serves the /products routes.
type ProductsController struct {
	lib Library
	log *logrus.Logger
}

func NewProductsController(lib Library, log *logrus.Logger) *ProductsController {
	return &ProductsController{lib: lib, log: log}
}

func productID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	return uint(id), err == nil
}

func (pc *ProductsController) ListProducts(c *fiber.Ctx) error {
	products, err := pc.lib.ListProducts(c.UserContext())
	if err != nil {
		return storeError(c, pc.log, err, "Failed to fetch products")
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

func (pc *ProductsController) GetProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Product not found")
	}
	product, err := pc.lib.GetProduct(c.UserContext(), id)
	if err != nil {
		return storeError(c, pc.log, err, "Failed to fetch product")
	}
	return c.Status(fiber.StatusOK).JSON(product)
}

func (pc *ProductsController) CreateProduct(c *fiber.Ctx) error {
	var req library.NewProduct
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id, err := pc.lib.AddProduct(c.UserContext(), req)
	if err != nil {
		return storeError(c, pc.log, err, "Failed to create product")
	}
	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{
		Message: "Product created successfully",
		ID:      int64(id),
	})
}

func (pc *ProductsController) UpdateProduct(c *fiber.Ctx) error {
	var req library.ProductUpdate
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Empty() {
		return storeError(c, pc.log, library.ErrNothingToUpdate, "")
	}
	id, ok := productID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Product not found")
	}
	if err := pc.lib.UpdateProduct(c.UserContext(), id, req); err != nil {
		return storeError(c, pc.log, err, "Failed to update product")
	}
	return jsonMessage(c, fiber.StatusOK, "Product updated successfully")
}

func (pc *ProductsController) DeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Product not found")
	}
	if err := pc.lib.DeleteProduct(c.UserContext(), id); err != nil {
		return storeError(c, pc.log, err, "Failed to delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
