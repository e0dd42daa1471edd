package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/middleware"
	"github.com/pathik-bd/pathik-api/internal/service"
)

// TourHandler exposes the tour planner.  All routes act on the caller's
// own tours.
type TourHandler struct {
	Tours *service.Tours
}

func NewTourHandler(t *service.Tours) *TourHandler { return &TourHandler{Tours: t} }

type memberReq struct {
	Name string `json:"name"`
}
type expenseReq struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PaidBy      string  `json:"paid_by"`
}
type placeReq struct {
	Place string `json:"place"`
}
type todoReq struct {
	Text string `json:"text"`
}

func (h *TourHandler) Create(c echo.Context) error {
	var req service.TourInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Tours.Create(c.Request().Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TourHandler) List(c echo.Context) error {
	out, err := h.Tours.List(c.Request().Context(), middleware.CurrentIdentity(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *TourHandler) Get(c echo.Context) error {
	t, err := h.Tours.Get(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) AddMember(c echo.Context) error {
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Tours.AddMember(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// RemoveMember takes the member name from the path.
func (h *TourHandler) RemoveMember(c echo.Context) error {
	t, err := h.Tours.RemoveMember(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), c.Param("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) AddExpense(c echo.Context) error {
	var req expenseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, err := h.Tours.AddExpense(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Description, req.Amount, req.PaidBy)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *TourHandler) RemoveExpense(c echo.Context) error {
	t, err := h.Tours.RemoveExpense(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), c.Param("expenseID"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) AddPlace(c echo.Context) error {
	var req placeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Tours.AddPlace(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Place)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// RemovePlace takes the zero-based position of the place from the path.
func (h *TourHandler) RemovePlace(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid index"})
	}
	t, err := h.Tours.RemovePlace(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), idx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) AddTodo(c echo.Context) error {
	var req todoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	td, err := h.Tours.AddTodo(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, td)
}

func (h *TourHandler) ToggleTodo(c echo.Context) error {
	td, err := h.Tours.ToggleTodo(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), c.Param("todoID"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, td)
}

func (h *TourHandler) RemoveTodo(c echo.Context) error {
	t, err := h.Tours.RemoveTodo(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), c.Param("todoID"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) End(c echo.Context) error {
	t, err := h.Tours.End(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TourHandler) Settlement(c echo.Context) error {
	s, err := h.Tours.Settlement(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Convert publishes the tour as a guide.  A second call answers 409.
func (h *TourHandler) Convert(c echo.Context) error {
	var req service.GuideExtra
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	g, err := h.Tours.ConvertToGuide(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}
