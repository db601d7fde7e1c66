package controller

import (
	"refund-lifecycle-be/internal/dto"
	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/mapper"
	"refund-lifecycle-be/internal/pkg/serverutils"
	"refund-lifecycle-be/pkg/production"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IProductionController interface {
	RegisterRoutes(r fiber.Router)
	Board(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
}

type productionController struct {
	board  *production.Board
	mapper *mapper.ProductionMapper
	auth   fiber.Handler
}

func NewProductionController(board *production.Board, auth fiber.Handler) IProductionController {
	return &productionController{board: board, mapper: mapper.NewProductionMapper(), auth: auth}
}

func (c *productionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/production")
	h.Use(c.auth, serverutils.StaffOnly())
	h.Get("/board", c.Board)
	h.Post("/items", c.Create)
	h.Get("/items/:id", c.Show)
	h.Post("/items/:id/status", c.Advance)
}

func (c *productionController) Board(ctx *fiber.Ctx) error {
	columns, err := c.board.Columns(ctx.UserContext(), ctx.Query("order_ref"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Production board", c.mapper.ToColumns(columns)))
}

func (c *productionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateProductionItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	item, err := c.board.Create(ctx.UserContext(), c.mapper.ToCreateRequest(&req, serverutils.Actor(ctx)))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Production item queued", c.mapper.ToResponse(item)))
}

func (c *productionController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return production.ErrNotFound
	}
	item, err := c.board.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Production item", c.mapper.ToResponse(item)))
}

func (c *productionController) Advance(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return production.ErrNotFound
	}
	var req dto.AdvanceProductionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	to, ok := entity.ParseProductionStatus(req.Status)
	if !ok {
		return &production.ValidationError{Fields: map[string]string{"status": "unknown status " + req.Status}}
	}

	item, err := c.board.Advance(ctx.UserContext(), id, to, serverutils.Actor(ctx), req.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Production item advanced", c.mapper.ToResponse(item)))
}
