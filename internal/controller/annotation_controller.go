package controller

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"canvas-annotations-be/internal/dto"
	"canvas-annotations-be/internal/pkg/serverutils"
	"canvas-annotations-be/internal/service"
	"canvas-annotations-be/pkg/canvas"
	"canvas-annotations-be/pkg/outline"

	"github.com/gofiber/fiber/v2"
)

type IAnnotationController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	Save(ctx *fiber.Ctx) error
	Load(ctx *fiber.Ctx) error
	BulkLoad(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	DeleteOne(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	RegisterOutline(ctx *fiber.Ctx) error
	Navigate(ctx *fiber.Ctx) error
}

type annotationController struct {
	registry *service.StoreRegistry
}

func NewAnnotationController(registry *service.StoreRegistry) IAnnotationController {
	return &annotationController{
		registry: registry,
	}
}

func (c *annotationController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/annotation/v1")
	h.Use(authMiddleware)
	h.Post("", c.Save)
	h.Post("load", c.Load)
	h.Post("bulk-load", c.BulkLoad)
	h.Get("export", c.Export)
	h.Post("import", c.Import)
	h.Get("status", c.Status)
	h.Delete("one", c.DeleteOne)
	h.Delete("", c.Clear)
	h.Post("outline", c.RegisterOutline)
	h.Post("navigate", c.Navigate)
}

func (c *annotationController) store(ctx *fiber.Ctx) service.IAnnotationService {
	userID := ctx.Locals("user_id").(string)
	return c.registry.ForUser(userID)
}

// surfaceFromPNG rebuilds the caller's canvas from its base64 PNG snapshot.
func surfaceFromPNG(data string, width, height int) (*canvas.MemorySurface, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid png image: %w", err)
	}

	surface := canvas.NewMemorySurface(width, height)
	surface.Draw(img)
	return surface, nil
}

func surfaceToPNG(surface canvas.Surface) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, surface.Image()); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (c *annotationController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	surface, err := surfaceFromPNG(req.ImagePNG, req.Width, req.Height)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	vectorImage, err := c.store(ctx).Save(ctx.Context(), surface, req.QuestionID, req.PartID, req.SectionID, req.DocumentPath)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Annotation saved", dto.SaveAnnotationResponse{
		VectorImage: vectorImage,
	}))
}

func (c *annotationController) Load(ctx *fiber.Ctx) error {
	var req dto.LoadAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	surface := canvas.NewMemorySurface(req.Width, req.Height)
	found := c.store(ctx).Load(ctx.Context(), surface, req.QuestionID, req.PartID, req.SectionID, req.DocumentPath)
	if !found {
		return ctx.JSON(serverutils.SuccessResponse("Annotation not found", dto.LoadAnnotationResponse{
			Found: false,
		}))
	}

	imagePNG, err := surfaceToPNG(surface)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Annotation loaded", dto.LoadAnnotationResponse{
		Found:    true,
		ImagePNG: imagePNG,
		Width:    surface.Width(),
		Height:   surface.Height(),
	}))
}

func (c *annotationController) BulkLoad(ctx *fiber.Ctx) error {
	var req dto.BulkLoadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	store := c.store(ctx)
	store.LoadAllForDocument(ctx.Context(), req.DocumentPath)

	return ctx.JSON(serverutils.SuccessResponse("Document annotations loaded", dto.AnnotationStatusResponse{
		CachedCount:    store.CachedCount(),
		CachedKeys:     store.CachedKeys(),
		Loading:        store.IsLoading(),
		EverBulkLoaded: store.HasEverBulkLoaded(),
	}))
}

func (c *annotationController) Export(ctx *fiber.Ctx) error {
	doc, count, err := c.store(ctx).ExportAll(ctx.Context())
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="annotations_export.json"`)
	ctx.Set("X-Export-Count", fmt.Sprintf("%d", count))
	return ctx.JSON(doc)
}

func (c *annotationController) Import(ctx *fiber.Ctx) error {
	count, err := c.store(ctx).ImportAll(ctx.Context(), ctx.Body())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Annotations imported", dto.ImportAnnotationsResponse{
		Imported: count,
	}))
}

func (c *annotationController) Clear(ctx *fiber.Ctx) error {
	if err := c.store(ctx).ClearAll(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Annotations cleared", nil))
}

func (c *annotationController) DeleteOne(ctx *fiber.Ctx) error {
	req := dto.DeleteAnnotationRequest{
		QuestionID:   ctx.Query("questionId"),
		PartID:       ctx.Query("partId"),
		DocumentPath: ctx.Query("documentPath"),
	}
	if section := ctx.Query("sectionId"); section != "" {
		req.SectionID = &section
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.store(ctx).DeleteOne(ctx.Context(), req.QuestionID, req.PartID, req.SectionID, req.DocumentPath); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Annotation deleted", nil))
}

func (c *annotationController) RegisterOutline(ctx *fiber.Ctx) error {
	var req dto.RegisterOutlineRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	doc := &outline.Outline{
		DocumentPath: req.DocumentPath,
		Sections:     make([]outline.Section, len(req.Sections)),
	}
	for i, section := range req.Sections {
		questions := make([]outline.QuestionPart, len(section.Questions))
		for j, qp := range section.Questions {
			questions[j] = outline.QuestionPart{QuestionID: qp.QuestionID, PartID: qp.PartID}
		}
		doc.Sections[i] = outline.Section{ID: section.ID, Questions: questions}
	}

	userID := ctx.Locals("user_id").(string)
	navigator := c.registry.RegisterOutline(userID, doc)

	return ctx.JSON(serverutils.SuccessResponse("Outline registered", dto.NavigatorStateResponse{
		CurrentIndex: navigator.CurrentIndex(),
		SectionCount: navigator.SectionCount(),
	}))
}

func (c *annotationController) Navigate(ctx *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := ctx.Locals("user_id").(string)
	navigator, ok := c.registry.Navigator(userID)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "no document outline registered")
	}

	switch req.Action {
	case "goto":
		navigator.GoTo(req.Index)
	case "next":
		navigator.Next()
	case "previous":
		navigator.Previous()
	}

	return ctx.JSON(serverutils.SuccessResponse("Navigated", dto.NavigatorStateResponse{
		CurrentIndex: navigator.CurrentIndex(),
		SectionCount: navigator.SectionCount(),
	}))
}

func (c *annotationController) Status(ctx *fiber.Ctx) error {
	store := c.store(ctx)
	return ctx.JSON(serverutils.SuccessResponse("Annotation store status", dto.AnnotationStatusResponse{
		CachedCount:    store.CachedCount(),
		CachedKeys:     store.CachedKeys(),
		Loading:        store.IsLoading(),
		EverBulkLoaded: store.HasEverBulkLoaded(),
	}))
}
