package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/view"
)

type viewBody struct {
	Kind      string              `json:"kind"`
	Tab       string              `json:"tab"`
	Filters   domain.Filters      `json:"filters"`
	Page      domain.PageRequest  `json:"page"`
	Selection []string            `json:"selection"`
	Actions   []view.ActionOption `json:"actions"`
	Data      struct {
		Items []domain.ReviewItem `json:"items"`
	} `json:"data"`
}

func TestView_DefaultTabAndLoad(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/views/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[viewBody](t, rec)
	assert.Equal(t, "pending", v.Tab)
	assert.Equal(t, "pending", v.Filters.Status)
	assert.Equal(t, 1, v.Page.Page)
	assert.Len(t, v.Data.Items, 3)
	assert.Empty(t, v.Selection)
	require.Len(t, v.Actions, 2)
	assert.Equal(t, domain.ActionPublish, v.Actions[0].Action)

	rec = f.do(t, http.MethodGet, "/views/orders", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestView_FilterChangeResetsPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/views/reviews", `{"page":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[viewBody](t, rec).Page.Page)

	rec = f.do(t, http.MethodPut, "/views/reviews/selection", `{"ids":["r1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPatch, "/views/reviews", `{"filters":{"status":"published","search":"late"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[viewBody](t, rec)
	assert.Equal(t, 1, v.Page.Page)
	assert.Equal(t, domain.Filters{Status: "pending", Search: "late"}, v.Filters)
	assert.Empty(t, v.Selection)

	rec = f.do(t, http.MethodPatch, "/views/reviews", `{"tab":"unread"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestView_ApplyKeepsFailedSelected(t *testing.T) {
	f := newFixture(t)
	f.backend.Fail("SetReviewStatus:r2", domain.ErrTransient)

	rec := f.do(t, http.MethodPut, "/views/reviews/selection", `{"ids":["r1","r2","r3"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"r1", "r2", "r3"}, decode[viewBody](t, rec).Selection)

	rec = f.do(t, http.MethodPost, "/views/reviews/apply", `{"action":"publish"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[struct {
		Outcome struct {
			Actor     string   `json:"actor"`
			View      string   `json:"view"`
			Succeeded []string `json:"succeeded"`
			Summary   string   `json:"summary"`
		} `json:"outcome"`
		View viewBody `json:"view"`
	}](t, rec)
	assert.Equal(t, "moderator-1", out.Outcome.Actor)
	assert.Equal(t, "pending", out.Outcome.View)
	assert.Equal(t, []string{"r1", "r3"}, out.Outcome.Succeeded)
	assert.Equal(t, "2 of 3 succeeded. 1 failed. Retry to re-run the remaining items.", out.Outcome.Summary)
	assert.Equal(t, []string{"r2"}, out.View.Selection)

	rec = f.do(t, http.MethodPost, "/views/reviews/apply", `{"action":"mark_read"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
