package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"vn.io.arda/console-sync/internal/application"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/transport/mw"
	"vn.io.arda/console-sync/internal/view"
)

type viewKey struct {
	actor string
	kind  domain.Kind
}

// viewSet holds one view.Controller per actor and kind, created on first use
// on the kind's default tab.
type viewSet struct {
	core view.Core

	mu    sync.Mutex
	views map[viewKey]*view.Controller
}

func newViewSet(core view.Core) *viewSet {
	return &viewSet{core: core, views: make(map[viewKey]*view.Controller)}
}

func (s *viewSet) get(actor string, kind domain.Kind) *view.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := viewKey{actor: actor, kind: kind}
	ctl, ok := s.views[key]
	if !ok {
		ctl = view.New(s.core, kind, view.Tabs(kind)[0], actor)
		s.views[key] = ctl
	}
	return ctl
}

// viewState is a screen's list state, plus the loaded page when requested.
type viewState struct {
	Kind      domain.Kind         `json:"kind"`
	Tab       domain.View         `json:"tab"`
	Filters   domain.Filters      `json:"filters"`
	Page      domain.PageRequest  `json:"page"`
	Selection []string            `json:"selection"`
	Actions   []view.ActionOption `json:"actions"`
	Data      any                 `json:"data,omitempty"`
	FetchedAt *time.Time          `json:"fetchedAt,omitempty"`
	Stale     bool                `json:"stale"`
}

// viewUpdate changes tab, filters and paging, applied in that order.
type viewUpdate struct {
	Tab      *domain.View    `json:"tab"`
	Filters  *domain.Filters `json:"filters"`
	Page     *int            `json:"page"`
	PageSize *int            `json:"pageSize"`
}

// GetView GET /views/:kind
func (h *Handler) GetView(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	return h.renderView(c, ctl, http.StatusOK)
}

// UpdateView PATCH /views/:kind
func (h *Handler) UpdateView(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}

	var in viewUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid view update")
	}

	kind := domain.Kind(c.Param("kind"))
	if in.Tab != nil {
		if !view.HasTab(kind, *in.Tab) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown tab for "+string(kind))
		}
		ctl.SetTab(*in.Tab)
	}
	if in.Filters != nil {
		ctl.SetFilters(*in.Filters)
	}
	if in.PageSize != nil {
		ctl.SetPageSize(*in.PageSize)
	}
	if in.Page != nil {
		ctl.SetPage(*in.Page)
	}
	return h.renderView(c, ctl, http.StatusOK)
}

// SelectInView PUT /views/:kind/selection replaces the selection.
func (h *Handler) SelectInView(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}

	var in struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid selection")
	}
	ctl.ClearSelection()
	ctl.Select(in.IDs...)
	return c.JSON(http.StatusOK, stateOf(ctl))
}

// ApplyInView POST /views/:kind/apply runs an action on the selection from
// the active tab.
func (h *Handler) ApplyInView(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}

	var in struct {
		Action domain.Action `json:"action"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid action")
	}

	out, err := ctl.Apply(c.Request().Context(), in.Action)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"outcome": application.BatchOutcome{BatchResult: out.Result, Summary: out.Summary},
		"view":    stateOf(ctl),
	})
}

func (h *Handler) controller(c echo.Context) (*view.Controller, error) {
	kind := domain.Kind(c.Param("kind"))
	if !kind.Valid() {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown kind")
	}
	return h.views.get(mw.Actor(c), kind), nil
}

func (h *Handler) renderView(c echo.Context, ctl *view.Controller, status int) error {
	entry, err := ctl.Load(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	state := stateOf(ctl)
	state.Data = entry.Value
	state.FetchedAt = &entry.FetchedAt
	state.Stale = entry.Stale
	return c.JSON(status, state)
}

func stateOf(ctl *view.Controller) viewState {
	selection := ctl.Selection()
	if selection == nil {
		selection = []string{}
	}
	return viewState{
		Kind:      ctl.Kind(),
		Tab:       ctl.Tab(),
		Filters:   ctl.Filters(),
		Page:      ctl.Page(),
		Selection: selection,
		Actions:   ctl.Actions(),
	}
}
