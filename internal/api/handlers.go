package api

import (
	"encoding/json"

	"github.com/benmeehan/locator/internal/models"
	"github.com/gofiber/fiber/v2"
)

// SubmitLocationResp is returned by POST /location.
type SubmitLocationResp struct {
	OK      bool `json:"ok"`
	Records int  `json:"records"`
}

func (h *HTTPService) registerRoutes() {
	h.app.Get("/healthz", h.handleHealth)

	h.app.Post("/location", h.handleSubmitLocation)
	h.app.Get("/location/:deviceId", h.handleLastLocations)

	h.app.Get("/trackee", h.handleListTrackees)
	h.app.Get("/trackee/:trackeeId", h.handleGetTrackee)
	h.app.Post("/trackee", h.handleSubmitTrackee)

	debug := h.app.Group("/debug")
	debug.Get("/store/:key", h.handleDiagGet)
	debug.Put("/store/:key", h.handleDiagSet)
	debug.Get("/metrics", h.handleMetrics)
}

func (h *HTTPService) handleHealth(c *fiber.Ctx) error {
	if err := h.query.Ping(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *HTTPService) handleSubmitLocation(c *fiber.Ctx) error {
	var report models.LocationReport
	if err := json.Unmarshal(c.Body(), &report); err != nil {
		return badReq("invalid JSON")
	}

	records, err := h.ingester.Ingest(c.UserContext(), report)
	if err != nil {
		return err
	}
	return c.JSON(SubmitLocationResp{OK: true, Records: len(records)})
}

func (h *HTTPService) handleLastLocations(c *fiber.Ctx) error {
	n := c.QueryInt("n", 0)
	records, err := h.query.GetLastLocations(c.UserContext(), c.Params("deviceId"), n)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (h *HTTPService) handleListTrackees(c *fiber.Ctx) error {
	trackees, err := h.query.GetTrackees(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(trackees)
}

func (h *HTTPService) handleGetTrackee(c *fiber.Ctx) error {
	trackee, err := h.query.GetTrackeeByID(c.UserContext(), c.Params("trackeeId"))
	if err != nil {
		return err
	}
	return c.JSON(trackee)
}

func (h *HTTPService) handleSubmitTrackee(c *fiber.Ctx) error {
	var trackee models.Trackee
	if err := json.Unmarshal(c.Body(), &trackee); err != nil || trackee == nil {
		return badReq("trackee must be a JSON object")
	}
	if err := h.query.UpdateTrackee(c.UserContext(), trackee); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "id": trackee.ID()})
}

func (h *HTTPService) handleDiagGet(c *fiber.Ctx) error {
	value, err := h.query.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(value)
}

func (h *HTTPService) handleDiagSet(c *fiber.Ctx) error {
	// fiber reuses the request buffer once the handler returns
	value := append(json.RawMessage(nil), c.Body()...)
	if err := h.query.Set(c.UserContext(), c.Params("key"), value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *HTTPService) handleMetrics(c *fiber.Ctx) error {
	if h.metrics == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(h.metrics.Snapshot(c.UserContext()))
}
