package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/middleware"
	"github.com/pathik-bd/pathik-api/internal/service"
)

type GuideHandler struct {
	Guides *service.Guides
}

func NewGuideHandler(g *service.Guides) *GuideHandler { return &GuideHandler{Guides: g} }

func (h *GuideHandler) Create(c echo.Context) error {
	var req service.GuideInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	g, err := h.Guides.Create(c.Request().Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *GuideHandler) Get(c echo.Context) error {
	g, err := h.Guides.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *GuideHandler) List(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.Guides.List(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
