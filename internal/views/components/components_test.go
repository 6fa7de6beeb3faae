package components

import (
	"errors"
	"testing"
	"time"

	"cubepool/internal/cube"
	"cubepool/internal/store"
	"cubepool/internal/testhelpers"

	"github.com/stretchr/testify/assert"
)

var started = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func finished(status cube.FetchStatus, c cube.Cube, errMsg string) store.Session {
	return store.Session{
		ID:   "abc",
		Cube: c,
		Fetch: store.FetchState{
			Query:   cube.FetchQuery{Sets: []string{"akh", "dom"}, IncludeRarity: true},
			Status:  status,
			Pages:   2,
			Cards:   len(c),
			Error:   errMsg,
			Started: started,
		},
	}
}

var sampleCube = cube.Cube{
	{Name: "Glorybringer", Rarity: cube.RarityRare},
	{Name: "Abrade", Rarity: cube.RarityUncommon},
	{Name: "Shock", Rarity: cube.RarityCommon},
	{Name: "Opt", Rarity: cube.RarityCommon},
}

func TestFetchPhase(t *testing.T) {
	assert.Equal(t, "empty", FetchPhase(store.FetchState{}))
	assert.Equal(t, "fetching", FetchPhase(store.FetchState{Running: true}))
	assert.Equal(t, "partial", FetchPhase(store.FetchState{Started: started, Status: cube.FetchPartial}))
	assert.Equal(t, "complete", FetchPhase(store.FetchState{Started: started, Status: cube.FetchComplete}))
}

func TestCubeStatus(t *testing.T) {
	renderer := testhelpers.NewTemplateRenderer(t)

	t.Run("empty session", func(t *testing.T) {
		renderer.Render(CubeStatus(store.Session{})).
			AssertValid().
			AssertHasElementWithID("cube-status").
			AssertHasClass("status-empty").
			AssertContains("No cube fetched yet.").
			AssertElementCount("li", 0)
	})

	t.Run("fetch in progress", func(t *testing.T) {
		sess := store.Session{Fetch: store.FetchState{
			Running: true,
			Query:   cube.FetchQuery{Sets: []string{"akh", "dom"}},
			Pages:   2,
			Cards:   350,
			Total:   700,
			Started: started,
		}}

		renderer.Render(CubeStatus(sess)).
			AssertValid().
			AssertHasClass("status-fetching").
			AssertContains("Fetching akh, dom: page 2, 350 cards of 700").
			AssertContains(`<progress value="350" max="700"></progress>`)
	})

	t.Run("complete fetch lists the cube", func(t *testing.T) {
		renderer.Render(CubeStatus(finished(cube.FetchComplete, sampleCube, ""))).
			AssertValid().
			AssertHasClass("status-complete").
			AssertContains("4 cards from akh, dom.").
			AssertContains("1 rare/mythic, 1 uncommon, 2 common").
			AssertElementCount("li", 4).
			AssertContains(`Glorybringer <span class="rarity rarity-rare">rare</span>`)
	})

	t.Run("partial fetch shows the reason", func(t *testing.T) {
		err := &cube.StatusError{Code: 503}
		renderer.Render(CubeStatus(finished(cube.FetchPartial, sampleCube[:2], err.Error()))).
			AssertValid().
			AssertHasClass("status-partial").
			AssertContains("Partial result: 2 cards from 2 pages.").
			AssertContains("search request failed with status 503")
	})

	t.Run("renders the status section and reason inline", func(t *testing.T) {
		renderer.Render(CubeStatus(finished(cube.FetchPartial, sampleCube[:1], "boom"))).
			AssertContains(`<section id="cube-status" class="cube-status status-partial"><h2>Cube</h2>`).
			AssertContains(`from 2 pages. <span class="reason">boom</span></p>`).
			AssertContains(`<li>Glorybringer <span class="rarity rarity-rare">rare</span></li>`)
	})

	t.Run("cancelled fetch", func(t *testing.T) {
		renderer.Render(CubeStatus(finished(cube.FetchCancelled, sampleCube[:1], "context canceled"))).
			AssertHasClass("status-cancelled").
			AssertContains("Fetch cancelled. Kept 1 cards.")
	})

	t.Run("rarity-less cube hides tier counts", func(t *testing.T) {
		sess := finished(cube.FetchComplete, cube.Cube{{Name: "Shock"}}, "")
		sess.Fetch.Query.IncludeRarity = false

		renderer.Render(CubeStatus(sess)).
			AssertNotContains("rare/mythic").
			AssertNotContains(`class="rarity`)
	})

	t.Run("escapes card names", func(t *testing.T) {
		sess := finished(cube.FetchComplete, cube.Cube{{Name: `<b>"Evil"</b>`}}, "")
		renderer.Render(CubeStatus(sess)).
			AssertNotContains("<b>").
			AssertContains("&lt;b&gt;&#34;Evil&#34;&lt;/b&gt;")
	})
}

func TestPoolView(t *testing.T) {
	renderer := testhelpers.NewTemplateRenderer(t)

	t.Run("no pool yet", func(t *testing.T) {
		renderer.Render(PoolView(store.Session{})).
			AssertValid().
			AssertHasElementWithID("pool").
			AssertContains("No pool generated yet.")
	})

	t.Run("generated pool", func(t *testing.T) {
		sess := store.Session{
			Pool:     cube.Pool{sampleCube[0], sampleCube[1], sampleCube[2], sampleCube[3]},
			PoolID:   "0123abcd",
			PoolSpec: cube.PackSpec{PackCount: 1, RaresPerPack: 1, UncommonsPerPack: 1, CommonsPerPack: 2},
			PoolName: "my cube",
		}

		renderer.Render(PoolView(sess)).
			AssertValid().
			AssertContains("<h2>my cube</h2>").
			AssertContains("4 cards in 1 packs").
			AssertNotContains("shortfall").
			AssertContains(`href="/pool/0123abcd.csv?name=my+cube"`).
			AssertContains("Download my cube.csv").
			AssertContains(`src="/pool/0123abcd/qr?name=my+cube"`).
			AssertElementCount("h3", 1).
			AssertElementCount("li", 5)
	})

	t.Run("short pool says so", func(t *testing.T) {
		sess := store.Session{
			Pool:     cube.Pool{sampleCube[0]},
			PoolID:   "ff",
			PoolSpec: cube.PackSpec{PackCount: 2, RaresPerPack: 1},
			PoolName: "pool",
		}

		renderer.Render(PoolView(sess)).
			AssertHasClass("shortfall").
			AssertContains("enough cards for 1 of 2").
			AssertElementCount("h3", 1)
	})
}

func TestErrorMessage(t *testing.T) {
	renderer := testhelpers.NewTemplateRenderer(t)

	renderer.Render(ErrorMessage("")).
		AssertContains(`<div id="error-container"></div>`)

	renderer.Render(ErrorMessage(errors.New(`sets: invalid set code "<x>"`).Error())).
		AssertValid().
		AssertHasClass("error").
		AssertContains(`role="alert"`).
		AssertContains("sets: invalid set code &#34;&lt;x&gt;&#34;")
}
