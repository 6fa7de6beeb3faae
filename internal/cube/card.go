package cube

// Rarity is the printed rarity of a card as reported by the search API.
// The zero value means rarity is not tracked for the card.
type Rarity string

const (
	RarityNone     Rarity = ""
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
)

// Tier is one of the three sampling buckets a booster is built from
type Tier int

const (
	TierNone Tier = iota
	TierRare
	TierUncommon
	TierCommon
)

// Tier maps a rarity onto its sampling bucket. Rare and mythic share a bucket;
// absent or unrecognised rarities map to TierNone and are never sampled.
func (r Rarity) Tier() Tier {
	switch r {
	case RarityRare, RarityMythic:
		return TierRare
	case RarityUncommon:
		return TierUncommon
	case RarityCommon:
		return TierCommon
	default:
		return TierNone
	}
}

// String returns the label shown in the UI
func (t Tier) String() string {
	switch t {
	case TierRare:
		return "rare"
	case TierUncommon:
		return "uncommon"
	case TierCommon:
		return "common"
	default:
		return "none"
	}
}

// Card is a single card record. Only the name and rarity are kept.
type Card struct {
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity,omitempty"`
}

// Cube is every card fetched for one query, in API order (alphabetical by name).
type Cube []Card

// Pool is a sampled set of cards ready for export. It never shares a backing
// array with the Cube it was drawn from.
type Pool []Card

// Tiers is a Cube partitioned by sampling bucket
type Tiers struct {
	Rares     []Card
	Uncommons []Card
	Commons   []Card
}

// Partition splits the cube into rarity tiers, preserving cube order inside
// each tier. Cards without a recognised rarity are dropped.
func Partition(c Cube) Tiers {
	var t Tiers
	for _, card := range c {
		switch card.Rarity.Tier() {
		case TierRare:
			t.Rares = append(t.Rares, card)
		case TierUncommon:
			t.Uncommons = append(t.Uncommons, card)
		case TierCommon:
			t.Commons = append(t.Commons, card)
		}
	}
	return t
}
