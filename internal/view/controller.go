// Package view holds the per-screen state of a list view: active tab,
// filters, page and the ordered selection a batch action applies to.
package view

import (
	"context"
	"fmt"
	"sync"

	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/messages"
)

// Core is the part of application.Service a view drives.
type Core interface {
	Fetch(ctx context.Context, kind domain.Kind, filters domain.Filters, page domain.PageRequest) (cache.Entry, error)
	RunBatchTransition(ctx context.Context, req domain.BatchRequest) (*domain.BatchResult, error)
}

// ActionOption is a batch action offered on the current tab.
type ActionOption struct {
	Action domain.Action `json:"action"`
	Label  string        `json:"label"`
}

// Outcome is what Apply reports back to the screen.
type Outcome struct {
	Result  *domain.BatchResult
	Summary string
}

// Tabs lists the tabs offered for kind. The first is the default.
func Tabs(kind domain.Kind) []domain.View {
	switch kind {
	case domain.KindNotification:
		return []domain.View{domain.ViewAll, domain.ViewUnread, domain.ViewRead}
	case domain.KindReview:
		return []domain.View{domain.ViewPending, domain.ViewPublished, domain.ViewAll}
	}
	return nil
}

// HasTab reports whether kind offers tab.
func HasTab(kind domain.Kind, tab domain.View) bool {
	for _, t := range Tabs(kind) {
		if t == tab {
			return true
		}
	}
	return false
}

// Controller is one screen's list state. It is safe for concurrent use.
type Controller struct {
	core  Core
	kind  domain.Kind
	actor string

	mu        sync.Mutex
	tab       domain.View
	filters   domain.Filters
	page      domain.PageRequest
	selection []string
	selected  map[string]struct{}
}

// New creates a Controller for kind on tab, page 1.
func New(core Core, kind domain.Kind, tab domain.View, actor string) *Controller {
	c := &Controller{
		core:     core,
		kind:     kind,
		actor:    actor,
		tab:      tab,
		page:     domain.PageRequest{Page: 1, PageSize: domain.DefaultPageSize},
		selected: make(map[string]struct{}),
	}
	c.filters.Status = tab.StatusFilter()
	return c
}

// Kind returns the resource kind the screen lists.
func (c *Controller) Kind() domain.Kind { return c.kind }

// Tab returns the active tab.
func (c *Controller) Tab() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// Page returns the current page request.
func (c *Controller) Page() domain.PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Filters returns the effective filters, including the tab's status.
func (c *Controller) Filters() domain.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetTab switches tab. The page returns to 1 and the selection is cleared.
func (c *Controller) SetTab(tab domain.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = tab
	c.filters.Status = tab.StatusFilter()
	c.resetLocked()
}

// SetFilters replaces the search, category and priority filters. The status
// filter stays owned by the tab. The page returns to 1 and the selection is
// cleared.
func (c *Controller) SetFilters(f domain.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.Status = c.tab.StatusFilter()
	c.filters = f
	c.resetLocked()
}

// SetPage moves to page n, keeping the selection.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page.Page = n
	c.page = c.page.Normalize()
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = domain.PageRequest{Page: 1, PageSize: size}.Normalize()
}

func (c *Controller) resetLocked() {
	c.page.Page = 1
	c.selection = nil
	c.selected = make(map[string]struct{})
}

// Toggle flips id in the selection and reports whether it is now selected.
func (c *Controller) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		for i, s := range c.selection {
			if s == id {
				c.selection = append(c.selection[:i], c.selection[i+1:]...)
				break
			}
		}
		return false
	}
	c.addLocked(id)
	return true
}

// Select adds ids to the selection in order, skipping ones already selected.
func (c *Controller) Select(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.addLocked(id)
	}
}

func (c *Controller) addLocked(id string) {
	if id == "" {
		return
	}
	if _, ok := c.selected[id]; ok {
		return
	}
	c.selected[id] = struct{}{}
	c.selection = append(c.selection, id)
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = nil
	c.selected = make(map[string]struct{})
}

// Selection returns the selected ids in selection order.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selection...)
}

// Load fetches the current page through the cache.
func (c *Controller) Load(ctx context.Context) (cache.Entry, error) {
	c.mu.Lock()
	filters, page := c.filters, c.page
	c.mu.Unlock()
	return c.core.Fetch(ctx, c.kind, filters, page)
}

// Actions lists the batch actions the active tab offers.
func (c *Controller) Actions() []ActionOption {
	tab := c.Tab()

	var actions []domain.Action
	switch c.kind {
	case domain.KindNotification:
		if tab != domain.ViewRead {
			actions = append(actions, domain.ActionMarkRead)
		}
		actions = append(actions, domain.ActionDelete)
	case domain.KindReview:
		switch tab {
		case domain.ViewPending:
			actions = []domain.Action{domain.ActionPublish, domain.ActionDelete}
		case domain.ViewPublished:
			actions = []domain.Action{domain.ActionMoveToPending, domain.ActionDelete}
		default:
			actions = []domain.Action{domain.ActionPublish, domain.ActionMoveToPending, domain.ActionDelete}
		}
	}

	out := make([]ActionOption, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionOption{Action: a, Label: messages.ActionLabel(a)})
	}
	return out
}

// Apply runs action on the selection with the active tab as the view.
// Afterwards the selection holds exactly the ids that did not take effect,
// so a second Apply retries them.
func (c *Controller) Apply(ctx context.Context, action domain.Action) (*Outcome, error) {
	c.mu.Lock()
	req := domain.BatchRequest{
		Kind:   c.kind,
		IDs:    append([]string(nil), c.selection...),
		Action: action,
		View:   c.tab,
		Actor:  c.actor,
	}
	c.mu.Unlock()

	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("apply %s: nothing selected: %w", action, domain.ErrInvalidRequest)
	}

	result, err := c.core.RunBatchTransition(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.selection = nil
	c.selected = make(map[string]struct{})
	for _, id := range result.Remaining() {
		c.addLocked(id)
	}
	c.mu.Unlock()

	return &Outcome{Result: result, Summary: messages.BatchSummary(result)}, nil
}
