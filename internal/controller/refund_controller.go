package controller

import (
	"errors"

	"refund-lifecycle-be/internal/dto"
	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/mapper"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/pkg/serverutils"
	"refund-lifecycle-be/pkg/idempotency"
	"refund-lifecycle-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const IdempotencyHeader = "Idempotency-Key"

type IRefundController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Ledger(ctx *fiber.Ctx) error
	Evaluate(ctx *fiber.Ctx) error
	Review(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Execute(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
}

type refundController struct {
	processor   *refund.Processor
	query       *refund.QueryService
	idempotency idempotency.Store
	log         logger.ILogger
	mapper      *mapper.RefundMapper
	auth        fiber.Handler
}

func NewRefundController(
	processor *refund.Processor,
	query *refund.QueryService,
	idem idempotency.Store,
	log logger.ILogger,
	auth fiber.Handler,
) IRefundController {
	return &refundController{
		processor:   processor,
		query:       query,
		idempotency: idem,
		log:         log,
		mapper:      mapper.NewRefundMapper(),
		auth:        auth,
	}
}

func (c *refundController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/refunds")
	h.Use(c.auth)

	staff := serverutils.StaffOnly()
	h.Get("", staff, c.GetAll)
	h.Post("", c.Create)
	h.Get("/summary", staff, c.Summary)
	h.Get("/:id", c.Show)
	h.Get("/:id/ledger", c.Ledger)
	h.Post("/:id/evaluate", staff, c.Evaluate)
	h.Post("/:id/review", staff, c.Review)
	h.Post("/:id/approve", staff, c.Approve)
	h.Post("/:id/reject", staff, c.Reject)
	h.Post("/:id/cancel", staff, c.Cancel)
	h.Post("/:id/execute", staff, c.Execute)
	h.Post("/:id/retry", staff, c.Retry)
	h.Post("/:id/complete", serverutils.RequireRole(serverutils.RoleStaff, serverutils.RoleAdmin, serverutils.RoleGateway), c.Complete)
}

func (c *refundController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateRefundRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	actor := serverutils.Actor(ctx)
	if role, _ := ctx.Locals(serverutils.LocalRole).(string); role == serverutils.RoleCustomer {
		// Customers may only file for themselves.
		req.CustomerRef = actor
	}
	intake := c.mapper.ToIntake(&req, actor)

	key := ctx.Get(IdempotencyHeader)
	if key == "" {
		created, err := c.processor.Intake(ctx.UserContext(), intake)
		if err != nil {
			return err
		}
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Refund request created", c.mapper.ToResponse(created)))
	}

	id, replayed, err := idempotency.Do(ctx.UserContext(), c.idempotency, c.log, "refund-intake:"+actor+":"+key, func() (string, error) {
		created, err := c.processor.Intake(ctx.UserContext(), intake)
		if err != nil {
			return "", err
		}
		return created.ID.String(), nil
	})
	if err != nil {
		return err
	}
	refundId, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	res, err := c.processor.Get(ctx.UserContext(), refundId)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if replayed {
		status = fiber.StatusOK
		ctx.Set("Idempotent-Replayed", "true")
	}
	return ctx.Status(status).JSON(serverutils.SuccessResponse("Refund request created", c.mapper.ToResponse(res)))
}

func (c *refundController) queryFrom(ctx *fiber.Ctx) refund.Query {
	return refund.Query{
		Timeframe: ctx.Query("timeframe"),
		Status:    ctx.Query("status"),
		Reason:    ctx.Query("reason"),
		Search:    ctx.Query("search"),
		Page:      ctx.QueryInt("page", 1),
		Limit:     ctx.QueryInt("limit", refund.DefaultPageSize),
	}
}

func (c *refundController) GetAll(ctx *fiber.Ctx) error {
	page, err := c.query.List(ctx.UserContext(), c.queryFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund requests", c.mapper.ToListResponse(page)))
}

func (c *refundController) Summary(ctx *fiber.Ctx) error {
	sum, err := c.query.Summary(ctx.UserContext(), c.queryFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund summary", c.mapper.ToSummaryResponse(sum)))
}

// load fetches the :id record, hiding other customers' records behind a 404.
func (c *refundController) load(ctx *fiber.Ctx) (*entity.Refund, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return nil, refund.ErrNotFound
	}
	r, err := c.processor.Get(ctx.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if role, _ := ctx.Locals(serverutils.LocalRole).(string); role == serverutils.RoleCustomer && r.CustomerRef != serverutils.Actor(ctx) {
		return nil, refund.ErrNotFound
	}
	return r, nil
}

func (c *refundController) Show(ctx *fiber.Ctx) error {
	r, err := c.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund details", c.mapper.ToResponse(r)))
}

func (c *refundController) Ledger(ctx *fiber.Ctx) error {
	r, err := c.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund ledger", mapper.LedgerToResponse(r.Ledger)))
}

func parseID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, refund.ErrNotFound
	}
	return id, nil
}

func actionNote(ctx *fiber.Ctx) (string, error) {
	if len(ctx.Body()) == 0 {
		return "", nil
	}
	var req dto.RefundActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return req.Note, nil
}

func (c *refundController) respond(ctx *fiber.Ctx, message string, r *entity.Refund, err error) error {
	var gwErr *refund.GatewayError
	if err != nil && !(errors.As(err, &gwErr) && r != nil) {
		return err
	}
	if err != nil {
		// The failure is already on the ledger; report it alongside the record.
		body := serverutils.MapError(err)
		return ctx.Status(body.Code).JSON(fiber.Map{
			"success": false,
			"code":    body.Code,
			"message": body.Message,
			"details": body.Details,
			"data":    c.mapper.ToResponse(r),
		})
	}
	return ctx.JSON(serverutils.SuccessResponse(message, c.mapper.ToResponse(r)))
}

func (c *refundController) Evaluate(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Evaluate(ctx.UserContext(), id)
	return c.respond(ctx, "Refund evaluated", r, err)
}

func (c *refundController) Review(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.StartReview(ctx.UserContext(), id, serverutils.Actor(ctx))
	return c.respond(ctx, "Refund under review", r, err)
}

func (c *refundController) Approve(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	note, err := actionNote(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Approve(ctx.UserContext(), id, serverutils.Actor(ctx), note)
	return c.respond(ctx, "Refund approved", r, err)
}

func (c *refundController) Reject(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	note, err := actionNote(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Reject(ctx.UserContext(), id, serverutils.Actor(ctx), note)
	return c.respond(ctx, "Refund rejected", r, err)
}

func (c *refundController) Cancel(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	note, err := actionNote(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Cancel(ctx.UserContext(), id, serverutils.Actor(ctx), note)
	return c.respond(ctx, "Refund cancelled", r, err)
}

func (c *refundController) Execute(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Execute(ctx.UserContext(), id, serverutils.Actor(ctx))
	return c.respond(ctx, "Refund executed", r, err)
}

func (c *refundController) Retry(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	r, err := c.processor.Retry(ctx.UserContext(), id, serverutils.Actor(ctx))
	return c.respond(ctx, "Refund retried", r, err)
}

func (c *refundController) Complete(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	var req dto.CompleteRefundRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	r, err := c.processor.Complete(ctx.UserContext(), id, req.TransactionRef, serverutils.Actor(ctx))
	return c.respond(ctx, "Refund completed", r, err)
}
