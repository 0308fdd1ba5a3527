package session

import (
	"bytes"
	"errors"
	"io"

	"scanmate/core/logger"
	"scanmate/feature/exporter"
	"scanmate/feature/inventory"
	"scanmate/feature/remote"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests from the device UI.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/scans", h.HandleScan)
	app.Get("/status", h.HandleStatus)
	app.Put("/mode", h.HandleSetMode)
	app.Put("/items/:barcode/scanned", h.HandleSetScanned)
	app.Get("/items/:mode/recent", h.HandleRecent)
	app.Get("/items/:mode/:barcode/logs", h.HandleHistory)
	app.Get("/containers", h.HandleContainers)
	app.Post("/import/:kind", h.HandleImport)
	app.Get("/export/:mode/:what", h.HandleExport)
	app.Get("/stats/:mode", h.HandleStats)
	app.Get("/audit/:mode", h.HandleAudit)
	app.Get("/archive/:mode/:kind", h.HandleArchives)
	app.Post("/sales/import", h.HandleImportSales)
	app.Get("/sales/:barcode", h.HandleSale)

	sync := app.Group("/sync")
	sync.Get("/employees", h.HandleEmployees)
	sync.Post("/:mode/download", h.HandleDownload)
	sync.Post("/:mode/upload", h.HandleUpload)
}

type scanRequest struct {
	Barcode  string   `json:"barcode"`
	Barcodes []string `json:"barcodes"`
}

// HandleScan queues one or more raw reads.
// @Summary Queue Scans
// @Description Queues raw barcode reads for the scan pipeline. Processing is asynchronous.
// @Tags scanning
// @Accept json
// @Produce json
// @Success 202 {object} map[string]interface{} "Queued count"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /scans [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	var req scanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	reads := req.Barcodes
	if req.Barcode != "" {
		reads = append(reads, req.Barcode)
	}
	if len(reads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "barcode is required"})
	}

	queued := h.service.Scan(reads...)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued":  queued,
		"dropped": len(reads) - queued,
	})
}

// HandleStatus returns routing, counters and the last processed scan.
// @Summary Session Status
// @Tags scanning
// @Produce json
// @Success 200 {object} Status
// @Router /status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

type modeRequest struct {
	Mode      string  `json:"mode"`
	Container *string `json:"container"`
	Section   *string `json:"section"`
}

// HandleSetMode switches the scan routing.
// @Summary Set Scan Mode
// @Tags scanning
// @Accept json
// @Produce json
// @Success 200 {object} Status
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /mode [put]
func (h *Handler) HandleSetMode(c *fiber.Ctx) error {
	var req modeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	mode, err := inventory.ParseMode(req.Mode)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.service.SetMode(mode, req.Container, req.Section); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.service.Status())
}

type scannedRequest struct {
	Mode      string   `json:"mode"`
	Container *string  `json:"container"`
	Section   *string  `json:"section"`
	Value     *float64 `json:"value"`
}

// HandleSetScanned applies a manual count correction.
// @Summary Set Scanned Quantity
// @Description Sets the absolute scanned quantity of an item and logs the difference as a manual entry. The mode defaults to the current scan mode.
// @Tags items
// @Accept json
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} inventory.Item
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /items/{barcode}/scanned [put]
func (h *Handler) HandleSetScanned(c *fiber.Ctx) error {
	var req scannedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Value == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "value is required"})
	}

	mode, _ := h.service.Pipeline.Mode()
	if req.Mode != "" {
		var err error
		if mode, err = inventory.ParseMode(req.Mode); err != nil {
			return h.fail(c, err)
		}
	}

	it, err := h.service.SetScanned(c.Context(), mode, c.Params("barcode"), req.Container, *req.Value, req.Section)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(it)
}

// HandleRecent lists the most recently updated items.
// @Summary Recent Items
// @Tags items
// @Produce json
// @Param mode path string true "standard or loots"
// @Param limit query int false "Maximum items"
// @Success 200 {array} inventory.Item
// @Router /items/{mode}/recent [get]
func (h *Handler) HandleRecent(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	items, err := h.service.Recent(c.Context(), mode, c.QueryInt("limit", 20))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(items)
}

// HandleHistory returns the logs of one barcode.
// @Summary Item History
// @Tags items
// @Produce json
// @Param mode path string true "standard or loots"
// @Param barcode path string true "Barcode"
// @Param container query string false "Loots container"
// @Success 200 {array} inventory.LogEntry
// @Router /items/{mode}/{barcode}/logs [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	var container *string
	if q := c.Query("container"); q != "" {
		container = &q
	}
	logs, err := h.service.History(c.Context(), mode, c.Params("barcode"), container)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(logs)
}

// HandleContainers lists the Loots boxes.
// @Summary List Containers
// @Tags items
// @Produce json
// @Success 200 {array} string
// @Router /containers [get]
func (h *Handler) HandleContainers(c *fiber.Ctx) error {
	boxes, err := h.service.Containers(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	if boxes == nil {
		boxes = []string{}
	}
	return c.JSON(boxes)
}

// HandleImport replaces a mode's dataset with the uploaded source.
// @Summary Import Dataset
// @Description Replaces the dataset of a mode. kind is spreadsheet, json or store. The source is the multipart "file" field or the raw body.
// @Tags import
// @Accept mpfd
// @Produce json
// @Param kind path string true "spreadsheet, json or store"
// @Param mode query string true "standard or loots"
// @Param sheet query string false "Sheet name"
// @Success 200 {object} importer.Result
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /import/{kind} [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	mode, err := inventory.ParseMode(c.Query("mode"))
	if err != nil {
		return h.fail(c, err)
	}

	src, closeSrc, err := upload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable upload"})
	}
	defer closeSrc()

	res, err := h.service.Import(c.Context(), mode, c.Params("kind"), src, c.Query("sheet"))
	if err != nil {
		logger.ForMode(l, string(mode)).Error("Import failed", zap.Error(err))
		return h.fail(c, err)
	}
	logger.ForMode(l, string(mode)).Info("Import finished", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
	return c.JSON(res)
}

// HandleExport downloads a mode's dataset or logs.
// @Summary Export
// @Tags export
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param mode path string true "standard or loots"
// @Param what path string true "dataset or logs"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {file} file
// @Router /export/{mode}/{what} [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	kind, err := exporter.ParseKind(c.Params("what"))
	if err != nil {
		return h.fail(c, err)
	}
	format := exporter.FormatJSON
	if q := c.Query("format"); q != "" {
		if format, err = exporter.ParseFormat(q); err != nil {
			return h.fail(c, err)
		}
	}

	a, err := h.service.Export(c.Context(), mode, kind, format)
	if err != nil {
		return h.fail(c, err)
	}
	c.Attachment(a.Name)
	c.Set(fiber.HeaderContentType, a.ContentType)
	c.Set("X-Export-ID", a.ID)
	return c.Send(a.Data)
}

// HandleStats returns a mode's aggregate counts.
// @Summary Inventory Statistics
// @Tags items
// @Produce json
// @Param mode path string true "standard or loots"
// @Success 200 {object} inventory.Stats
// @Router /stats/{mode} [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	stats, err := h.service.Stats(c.Context(), mode)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

// HandleAudit compares counts with the ledger.
// @Summary Ledger Audit
// @Description Reports items whose scanned quantity differs from the sum of their logged deltas. With repair=true drifted items are realigned to the ledger.
// @Tags audit
// @Produce json
// @Param mode path string true "standard or loots"
// @Param repair query boolean false "Realign drifted items"
// @Success 200 {object} map[string]interface{} "Audit plan"
// @Router /audit/{mode} [get]
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}

	plan, executed, err := h.service.Audit(c.Context(), mode, c.QueryBool("repair"))
	if err != nil {
		logger.ForMode(l, string(mode)).Error("Audit failed", zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"summary":  plan.Summary,
		"results":  plan.Results,
		"actions":  plan.Actions,
		"executed": executed,
	})
}

// HandleArchives lists archived artifacts.
// @Summary List Archives
// @Tags archive
// @Produce json
// @Param mode path string true "standard or loots"
// @Param kind path string true "dataset, logs or store-backup"
// @Success 200 {array} archive.Object
// @Router /archive/{mode}/{kind} [get]
func (h *Handler) HandleArchives(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	objects, err := h.service.Archives(c.Context(), mode, c.Params("kind"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(objects)
}

// HandleEmployees lists the employees of a remote session.
// @Summary Remote Employees
// @Tags sync
// @Produce json
// @Param session query int false "Session id"
// @Success 200 {array} remote.Employee
// @Router /sync/employees [get]
func (h *Handler) HandleEmployees(c *fiber.Ctx) error {
	employees, err := h.service.Employees(c.Context(), c.QueryInt("session"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(employees)
}

// HandleDownload replaces a mode's dataset with remote session data.
// @Summary Download Session Data
// @Tags sync
// @Produce json
// @Param mode path string true "standard or loots"
// @Param session query int false "Session id"
// @Param employee query int false "Employee id"
// @Success 200 {object} importer.Result
// @Router /sync/{mode}/download [post]
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.service.Download(c.Context(), mode, c.QueryInt("session"), c.QueryInt("employee"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleUpload submits a mode's counts to the remote session.
// @Summary Upload Counts
// @Tags sync
// @Produce json
// @Param mode path string true "standard or loots"
// @Param session query int false "Session id"
// @Param employee query int false "Employee id"
// @Success 200 {object} remote.UploadResult
// @Failure 409 {object} map[string]string "Rejected by the service"
// @Failure 502 {object} map[string]string "Service unreachable"
// @Router /sync/{mode}/upload [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	mode, err := inventory.ParseMode(c.Params("mode"))
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.service.Upload(c.Context(), mode, c.QueryInt("session"), c.QueryInt("employee"))
	if err != nil {
		logger.ForMode(l, string(mode)).Error("Upload failed", zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleSale looks up the sale price of a barcode.
// @Summary Sale Lookup
// @Tags sales
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} sales.Sale
// @Failure 404 {object} map[string]string "No sale for this barcode"
// @Router /sales/{barcode} [get]
func (h *Handler) HandleSale(c *fiber.Ctx) error {
	sale, err := h.service.Sale(c.Context(), c.Params("barcode"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(sale)
}

// HandleImportSales replaces the sales table from a workbook.
// @Summary Import Sales
// @Description Replaces the sale price table. The source is the multipart "file" field or the raw body.
// @Tags sales
// @Accept mpfd
// @Produce json
// @Param sheet query string false "Sheet name"
// @Success 200 {object} sales.Result
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /sales/import [post]
func (h *Handler) HandleImportSales(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	src, closeSrc, err := upload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable upload"})
	}
	defer closeSrc()

	res, err := h.service.ImportSales(c.Context(), src, c.Query("sheet"))
	if err != nil {
		l.Error("Sales import failed", zap.Error(err))
		return h.fail(c, err)
	}
	l.Info("Sales import finished", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
	return c.JSON(res)
}

// upload returns the multipart "file" field, or the raw body when there is none.
func upload(c *fiber.Ctx) (io.Reader, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return bytes.NewReader(c.Body()), func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var (
		validation *inventory.ValidationError
		transport  *remote.TransportError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.Is(err, inventory.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, remote.ErrRejected):
		return fiber.StatusConflict
	case errors.As(err, &transport), errors.Is(err, remote.ErrUnknownResponseShape):
		return fiber.StatusBadGateway
	case errors.Is(err, remote.ErrNotConfigured), errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrSalesDisabled), errors.Is(err, inventory.ErrStoreClosed):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
