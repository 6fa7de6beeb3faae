package components

import (
	"fmt"
	"net/url"
	"strings"

	"cubepool/internal/cube"
	"cubepool/internal/store"
)

// FetchPhase names the state shown by CubeStatus
func FetchPhase(f store.FetchState) string {
	switch {
	case f.Running:
		return "fetching"
	case f.Started.IsZero():
		return "empty"
	case f.Status == "":
		return "empty"
	default:
		return string(f.Status)
	}
}

// PoolLink is the download URL of a generated pool
func PoolLink(poolID, name string) string {
	return "/pool/" + url.PathEscape(poolID) + ".csv?name=" + url.QueryEscape(name)
}

func fetchingText(f store.FetchState) string {
	text := fmt.Sprintf("Fetching %s: page %d, %d cards", strings.Join(f.Query.Sets, ", "), f.Pages, f.Cards)
	if f.Total > 0 {
		text += fmt.Sprintf(" of %d", f.Total)
	}
	return text
}

func completeText(sess store.Session) string {
	return fmt.Sprintf("%d cards from %s.", len(sess.Cube), strings.Join(sess.Fetch.Query.Sets, ", "))
}

func partialText(sess store.Session) string {
	return fmt.Sprintf("Partial result: %d cards from %d pages.", len(sess.Cube), sess.Fetch.Pages)
}

func cancelledText(sess store.Session) string {
	return fmt.Sprintf("Fetch cancelled. Kept %d cards.", len(sess.Cube))
}

func tierText(c cube.Cube) string {
	tiers := cube.Partition(c)
	return fmt.Sprintf("%d rare/mythic, %d uncommon, %d common", len(tiers.Rares), len(tiers.Uncommons), len(tiers.Commons))
}

func cardsText(n int) string {
	return fmt.Sprintf("%d cards", n)
}

func poolSummary(sess store.Session) string {
	return fmt.Sprintf("%d cards in %d packs", len(sess.Pool), sess.PoolSpec.PackCount)
}

// shortfallText is empty when the pool has every requested card
func shortfallText(sess store.Session) string {
	spec := sess.PoolSpec
	want := spec.TotalRares() + spec.TotalUncommons() + spec.TotalCommons()
	if len(sess.Pool) >= want {
		return ""
	}
	return fmt.Sprintf("The cube only had enough cards for %d of %d.", len(sess.Pool), want)
}

func qrSource(sess store.Session) string {
	return "/pool/" + url.PathEscape(sess.PoolID) + "/qr?name=" + url.QueryEscape(sess.PoolName)
}

func downloadText(sess store.Session) string {
	return "Download " + cube.Filename(sess.PoolName)
}

func packTitle(i int) string {
	return fmt.Sprintf("Pack %d", i+1)
}

// displayPacks drops packs the pool could not fill at all
func displayPacks(sess store.Session) [][]cube.Card {
	var packs [][]cube.Card
	for _, pack := range cube.Packs(sess.Pool, sess.PoolSpec) {
		if len(pack) > 0 {
			packs = append(packs, pack)
		}
	}
	return packs
}
