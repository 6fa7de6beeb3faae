package pages

import (
	"net/url"
	"strconv"
	"strings"

	"cubepool/internal/config"
	"cubepool/internal/store"
)

// HomeData pre-fills the home page forms
type HomeData struct {
	Session store.Session
	Sets    string
	Packs   config.PackDefaults
	Columns []string
}

// Signals returns the initial datastar signals of the page
func (d HomeData) Signals() map[string]any {
	return map[string]any{
		"sets":      d.Sets,
		"rarity":    d.IncludeRarity(),
		"packs":     d.Packs.PackCount,
		"rares":     d.Packs.RaresPerPack,
		"uncommons": d.Packs.UncommonsPerPack,
		"commons":   d.Packs.CommonsPerPack,
		"poolname":  d.Packs.PoolName,
		"columns":   d.columns(),
		"fetching":  d.Session.Fetch.Running,
	}
}

// IncludeRarity is the session's last choice, checked before any fetch
func (d HomeData) IncludeRarity() bool {
	if d.Session.Fetch.Query.Sets == nil {
		return true
	}
	return d.Session.Fetch.Query.IncludeRarity
}

func (d HomeData) columns() string {
	return strings.Join(d.Columns, ",")
}

func (d HomeData) downloadHref() string {
	return "/pool/download?name=" + url.QueryEscape(d.Packs.PoolName) + "&columns=" + url.QueryEscape(d.columns())
}

type numberField struct {
	id, label string
	value     int
}

func (f numberField) valueText() string {
	return strconv.Itoa(f.value)
}

func (d HomeData) numberFields() []numberField {
	return []numberField{
		{"packs", "Packs", d.Packs.PackCount},
		{"rares", "Rares per pack", d.Packs.RaresPerPack},
		{"uncommons", "Uncommons per pack", d.Packs.UncommonsPerPack},
		{"commons", "Commons per pack", d.Packs.CommonsPerPack},
	}
}

var columnOptions = []string{"name", "name,rarity"}

const downloadHrefExpr = "'/pool/download?name=' + encodeURIComponent($poolname) + '&columns=' + encodeURIComponent($columns)"
