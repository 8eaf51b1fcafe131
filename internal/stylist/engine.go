// Package stylist assembles outfit suggestions from a wardrobe. The
// engine is pure: it scores and picks from the items it is handed, and
// the caller owns loading and persistence.
package stylist

import (
	"errors"
	"sort"
	"time"

	"github.com/stylevault/backend/internal/models"
)

var ErrInsufficientWardrobe = errors.New("not enough suitable items to build an outfit")

// Outfit slots. Top and bottom are mandatory unless a dress covers
// both; footwear is always mandatory.
const (
	SlotTop       = "top"
	SlotBottom    = "bottom"
	SlotDress     = "dress"
	SlotFootwear  = "footwear"
	SlotOuterwear = "outerwear"
	SlotAccessory = "accessory"
)

// Scoring weights. Dress-code fit dominates, then season.
const (
	weightDressCode = 3.0
	weightSeason    = 2.0
	weightFavorite  = 1.5
	weightFreshness = 1.0
	weightColor     = 1.0
)

// Items not worn for this long count as fully fresh
const freshnessWindow = 14 * 24 * time.Hour

// Request describes the occasion an outfit is needed for
type Request struct {
	DressCode string `json:"dress_code"`
	Season    string `json:"season"`
	// Outerwear is skipped for warm seasons unless forced
	IncludeOuterwear bool `json:"include_outerwear"`
}

// Pick is one chosen item with its score
type Pick struct {
	Slot  string              `json:"slot"`
	Item  models.ClothingItem `json:"item"`
	Score float64             `json:"score"`
}

// Suggestion is an assembled outfit
type Suggestion struct {
	Picks []Pick  `json:"picks"`
	Score float64 `json:"score"`
}

// neutrals pair with anything
var neutrals = map[string]bool{
	"black": true, "white": true, "gray": true, "grey": true,
	"navy": true, "beige": true, "cream": true, "tan": true,
	"brown": true, "denim": true, "khaki": true,
}

// Suggest builds the best outfit for the request from the given items.
// It fills top+bottom (or a single dress when one scores better),
// footwear, and optionally outerwear and an accessory.
func Suggest(items []models.ClothingItem, req Request, now time.Time) (*Suggestion, error) {
	bySlot := groupByCategory(items)

	top := best(bySlot[models.CategoryTop], req, now, nil)
	bottom := best(bySlot[models.CategoryBottom], req, now, nil)
	dress := best(bySlot[models.CategoryDress], req, now, nil)

	var picks []Pick
	var anchors []models.ClothingItem

	switch {
	case dress != nil && (top == nil || bottom == nil):
		picks = append(picks, Pick{Slot: SlotDress, Item: *dress.item, Score: dress.score})
		anchors = append(anchors, *dress.item)
	case dress != nil && dress.score > top.score+bottom.score:
		picks = append(picks, Pick{Slot: SlotDress, Item: *dress.item, Score: dress.score})
		anchors = append(anchors, *dress.item)
	case top != nil && bottom != nil:
		picks = append(picks,
			Pick{Slot: SlotTop, Item: *top.item, Score: top.score},
			Pick{Slot: SlotBottom, Item: *bottom.item, Score: bottom.score})
		anchors = append(anchors, *top.item, *bottom.item)
	default:
		return nil, ErrInsufficientWardrobe
	}

	footwear := best(bySlot[models.CategoryFootwear], req, now, anchors)
	if footwear == nil {
		return nil, ErrInsufficientWardrobe
	}
	picks = append(picks, Pick{Slot: SlotFootwear, Item: *footwear.item, Score: footwear.score})
	anchors = append(anchors, *footwear.item)

	if wantOuterwear(req) {
		if outer := best(bySlot[models.CategoryOuterwear], req, now, anchors); outer != nil {
			picks = append(picks, Pick{Slot: SlotOuterwear, Item: *outer.item, Score: outer.score})
			anchors = append(anchors, *outer.item)
		}
	}

	if acc := best(bySlot[models.CategoryAccessory], req, now, anchors); acc != nil {
		picks = append(picks, Pick{Slot: SlotAccessory, Item: *acc.item, Score: acc.score})
	}

	total := 0.0
	for _, p := range picks {
		total += p.Score
	}

	return &Suggestion{Picks: picks, Score: total}, nil
}

type scored struct {
	item  *models.ClothingItem
	score float64
}

// best returns the highest-scoring candidate, or nil when none fit the
// season at all. Ties break deterministically by item ID.
func best(candidates []models.ClothingItem, req Request, now time.Time, anchors []models.ClothingItem) *scored {
	var picked *scored
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	for i := range candidates {
		item := &candidates[i]
		if !item.MatchesSeason(req.Season) {
			continue
		}
		s := Score(item, req, now)
		for _, anchor := range anchors {
			if colorsCompatible(item.Colors, anchor.Colors) {
				s += weightColor
			}
		}
		if picked == nil || s > picked.score {
			picked = &scored{item: item, score: s}
		}
	}
	return picked
}

// Score rates one item for the request, ignoring color interplay
func Score(item *models.ClothingItem, req Request, now time.Time) float64 {
	s := 0.0

	if item.MatchesDressCode(req.DressCode) {
		s += weightDressCode
	}
	if req.Season != "" && len(item.Seasons) > 0 && item.MatchesSeason(req.Season) {
		// Explicit season tags beat all-season defaults
		s += weightSeason
	}
	if item.IsFavorite {
		s += weightFavorite
	}
	s += freshness(item, now)

	return s
}

// freshness rewards items that have not been worn recently. Never-worn
// items get the full bonus; the bonus decays linearly within the window.
func freshness(item *models.ClothingItem, now time.Time) float64 {
	if item.LastWornAt == nil {
		return weightFreshness
	}
	elapsed := now.Sub(*item.LastWornAt)
	if elapsed >= freshnessWindow {
		return weightFreshness
	}
	if elapsed < 0 {
		return 0
	}
	return weightFreshness * float64(elapsed) / float64(freshnessWindow)
}

// colorsCompatible reports whether two palettes work together: a shared
// color, or either side carrying a neutral.
func colorsCompatible(a, b models.StringArray) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, ca := range a {
		if neutrals[ca] {
			return true
		}
		for _, cb := range b {
			if ca == cb {
				return true
			}
		}
	}
	for _, cb := range b {
		if neutrals[cb] {
			return true
		}
	}
	return false
}

func wantOuterwear(req Request) bool {
	if req.IncludeOuterwear {
		return true
	}
	return req.Season == "autumn" || req.Season == "winter"
}

func groupByCategory(items []models.ClothingItem) map[models.ItemCategory][]models.ClothingItem {
	bySlot := make(map[models.ItemCategory][]models.ClothingItem)
	for _, item := range items {
		bySlot[item.Category] = append(bySlot[item.Category], item)
	}
	return bySlot
}
