package controller

import (
	"io"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/pkg/serverutils"
	"ai-docview-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Ingest(ctx *fiber.Ctx) error
	Detect(ctx *fiber.Ctx) error
	Confidence(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Profile(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	View(ctx *fiber.Ctx) error
	Switch(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/document/v1")
	h.Use(guard)
	h.Post("", c.Ingest)
	h.Post("detect", c.Detect)
	h.Post("confidence", c.Confidence)
	h.Get(":id/views", c.Show)
	h.Get(":id/profile", c.Profile)
	h.Get(":id/status", c.Status)
	h.Get(":id/views/:view", c.View)
	h.Post(":id/switch", c.Switch)
	h.Delete(":id", c.Delete)
}

// Ingest accepts either a JSON body or a multipart upload in the "file" field.
func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest

	if file, err := ctx.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		req.DocumentId = ctx.FormValue("document_id")
		req.Filename = file.Filename
		req.ContentType = file.Header.Get("Content-Type")
		req.Content = string(data)
	} else if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ProcessDocument(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success process document", res))
}

func (c *documentController) Detect(ctx *fiber.Ctx) error {
	var req dto.DetectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Detect(ctx.UserContext(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Success detect views", res))
}

func (c *documentController) Confidence(ctx *fiber.Ctx) error {
	var req dto.ConfidenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.ComputeConfidence(&req)
	return ctx.JSON(serverutils.SuccessResponse("Success compute confidence", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetContainer(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document views", res))
}

func (c *documentController) Profile(ctx *fiber.Ctx) error {
	res, err := c.service.GetProfile(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document profile", res))
}

func (c *documentController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.GetStatus(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document status", res))
}

func (c *documentController) View(ctx *fiber.Ctx) error {
	res, err := c.service.GetView(ctx.UserContext(), ctx.Params("id"), ctx.Params("view"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get view", res))
}

func (c *documentController) Switch(ctx *fiber.Ctx) error {
	var req dto.SwitchViewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	out, err := c.service.SwitchView(ctx.UserContext(), ctx.Params("id"), req.View)
	if err != nil {
		return err
	}

	res := &dto.SwitchViewResponse{
		View:             string(out.View),
		FromCache:        out.FromCache,
		UsedIntermediate: out.UsedIntermediate,
		ResultCacheHit:   out.ResultCacheHit,
		ProcessingTimeMs: out.ProcessingTime.Milliseconds(),
		Result:           service.ToViewResultResponse(out.Result),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success switch view", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	res, err := c.service.Delete(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete document", res))
}
