package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/middleware"
	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/service"
)

// ContributionHandler serves submissions, moderation and the public ledger
// reads.
type ContributionHandler struct {
	Ledger *service.Ledger
}

func NewContributionHandler(l *service.Ledger) *ContributionHandler {
	return &ContributionHandler{Ledger: l}
}

type submitReq struct {
	Category string          `json:"category"`
	Title    string          `json:"title"`
	Location string          `json:"location"`
	Details  json.RawMessage `json:"details"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// Submit stores a pending restaurant, hotel or market.
func (h *ContributionHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cat, ok := model.ParseCategory(req.Category)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category", "field": "category"})
	}
	rec, err := h.Ledger.Submit(c.Request().Context(), middleware.CurrentIdentity(c), cat, req.Title, req.Location, req.Details)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Mine lists the caller's own submissions in every status.
func (h *ContributionHandler) Mine(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.Ledger.ListByOwner(c.Request().Context(), middleware.CurrentIdentity(c).UserID, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get returns one submission to its owner or to an admin.
func (h *ContributionHandler) Get(c echo.Context) error {
	rec, err := h.Ledger.Contribution(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Pending lists the moderation queue.
func (h *ContributionHandler) Pending(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.Ledger.ListPending(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Approve moves a pending submission to approved and returns the owner's
// updated ledger entry.
func (h *ContributionHandler) Approve(c echo.Context) error {
	rec, entry, err := h.Ledger.RecordApproval(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"contribution": rec, "ledger": entry})
}

// Reject moves a pending submission to rejected.  A reason is required.
func (h *ContributionHandler) Reject(c echo.Context) error {
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Ledger.RejectSubmission(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Reconcile runs the ledger repair on demand.
func (h *ContributionHandler) Reconcile(c echo.Context) error {
	n, err := h.Ledger.Reconcile(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"repaired": n})
}

// Leaderboard returns the top users; ?limit= defaults to 20, max 100.
func (h *ContributionHandler) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.Ledger.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Stats returns one user's ledger entry.
func (h *ContributionHandler) Stats(c echo.Context) error {
	e, err := h.Ledger.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Directory lists approved entries of one category (restaurants, hotels,
// markets).
func (h *ContributionHandler) Directory(c echo.Context) error {
	cat, ok := model.ParseCategory(c.Param("category"))
	if !ok || !cat.Moderated() {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown directory"})
	}
	limit, offset := page(c)
	out, err := h.Ledger.Directory(c.Request().Context(), cat, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
