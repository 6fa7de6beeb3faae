package cube

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCube builds a cube with the given number of cards per rarity
func testCube(rares, uncommons, commons int) Cube {
	var c Cube
	for i := 0; i < rares; i++ {
		r := RarityRare
		if i%2 == 1 {
			r = RarityMythic
		}
		c = append(c, Card{Name: fmt.Sprintf("Rare %d", i), Rarity: r})
	}
	for i := 0; i < uncommons; i++ {
		c = append(c, Card{Name: fmt.Sprintf("Uncommon %d", i), Rarity: RarityUncommon})
	}
	for i := 0; i < commons; i++ {
		c = append(c, Card{Name: fmt.Sprintf("Common %d", i), Rarity: RarityCommon})
	}
	return c
}

func countTiers(p Pool) map[Tier]int {
	counts := make(map[Tier]int)
	for _, card := range p {
		counts[card.Rarity.Tier()]++
	}
	return counts
}

func TestSampler_GeneratePool(t *testing.T) {
	t.Run("caps each tier at its bucket size", func(t *testing.T) {
		c := testCube(5, 5, 5)
		s := NewSampler(rand.NewPCG(1, 2))

		pool := s.GeneratePool(c, PackSpec{PackCount: 2, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10})

		counts := countTiers(pool)
		assert.Equal(t, 2, counts[TierRare])
		assert.Equal(t, 5, counts[TierUncommon], "6 requested, only 5 available")
		assert.Equal(t, 5, counts[TierCommon], "20 requested, only 5 available")
		assert.Len(t, pool, 12)
	})

	t.Run("never repeats a card and only returns cube cards", func(t *testing.T) {
		c := testCube(5, 5, 5)
		inCube := make(map[Card]bool)
		for _, card := range c {
			inCube[card] = true
		}

		s := NewSampler(nil)
		for i := 0; i < 50; i++ {
			pool := s.GeneratePool(c, PackSpec{PackCount: 2, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10})
			seen := make(map[Card]bool)
			for _, card := range pool {
				assert.False(t, seen[card], "card %s drawn twice", card.Name)
				seen[card] = true
				assert.True(t, inCube[card], "card %s not in cube", card.Name)
			}
		}
	})

	t.Run("orders tiers rares, uncommons, commons", func(t *testing.T) {
		s := NewSampler(rand.NewPCG(7, 7))
		pool := s.GeneratePool(testCube(10, 10, 10), PackSpec{PackCount: 3, RaresPerPack: 1, UncommonsPerPack: 2, CommonsPerPack: 3})

		require.Len(t, pool, 18)
		for i, card := range pool {
			switch {
			case i < 3:
				assert.Equal(t, TierRare, card.Rarity.Tier())
			case i < 9:
				assert.Equal(t, TierUncommon, card.Rarity.Tier())
			default:
				assert.Equal(t, TierCommon, card.Rarity.Tier())
			}
		}
	})

	t.Run("cards without rarity are never drawn", func(t *testing.T) {
		c := append(testCube(1, 1, 1), Card{Name: "Mystery Card"}, Card{Name: "Token", Rarity: "special"})
		s := NewSampler(nil)

		for i := 0; i < 20; i++ {
			pool := s.GeneratePool(c, PackSpec{PackCount: 10, RaresPerPack: 5, UncommonsPerPack: 5, CommonsPerPack: 5})
			for _, card := range pool {
				assert.NotEqual(t, "Mystery Card", card.Name)
				assert.NotEqual(t, "Token", card.Name)
			}
		}
	})

	t.Run("cube fetched without rarity yields an empty pool", func(t *testing.T) {
		c := Cube{{Name: "Abrade"}, {Name: "Lightning Bolt"}}
		pool := NewSampler(nil).GeneratePool(c, PackSpec{PackCount: 18, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10})
		assert.Empty(t, pool)
	})

	t.Run("zero packs yields an empty pool", func(t *testing.T) {
		pool := NewSampler(nil).GeneratePool(testCube(3, 3, 3), PackSpec{RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10})
		assert.Empty(t, pool)
	})

	t.Run("pool does not alias the cube", func(t *testing.T) {
		c := testCube(3, 0, 0)
		pool := NewSampler(rand.NewPCG(3, 4)).GeneratePool(c, PackSpec{PackCount: 3, RaresPerPack: 1})
		require.Len(t, pool, 3)

		original := append(Cube(nil), c...)
		pool[0].Name = "Changed"
		assert.Equal(t, original, c)
	})

	t.Run("same seed draws the same pool", func(t *testing.T) {
		c := testCube(20, 20, 20)
		spec := PackSpec{PackCount: 3, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 5}

		a := NewSampler(rand.NewPCG(42, 0)).GeneratePool(c, spec)
		b := NewSampler(rand.NewPCG(42, 0)).GeneratePool(c, spec)
		assert.Equal(t, a, b)
	})

	t.Run("draws are spread across the bucket", func(t *testing.T) {
		c := testCube(0, 0, 10)
		s := NewSampler(rand.NewPCG(9, 9))
		hits := make(map[string]int)
		for i := 0; i < 2000; i++ {
			for _, card := range s.GeneratePool(c, PackSpec{PackCount: 1, CommonsPerPack: 1}) {
				hits[card.Name]++
			}
		}
		require.Len(t, hits, 10)
		for name, n := range hits {
			assert.InDelta(t, 200, n, 80, "%s drawn %d times", name, n)
		}
	})
}

func TestPartition(t *testing.T) {
	c := Cube{
		{Name: "A", Rarity: RarityMythic},
		{Name: "B", Rarity: RarityCommon},
		{Name: "C", Rarity: RarityRare},
		{Name: "D", Rarity: RarityUncommon},
		{Name: "E"},
	}

	tiers := Partition(c)

	assert.Equal(t, []string{"A", "C"}, names(tiers.Rares))
	assert.Equal(t, []string{"D"}, names(tiers.Uncommons))
	assert.Equal(t, []string{"B"}, names(tiers.Commons))
}

func TestPacks(t *testing.T) {
	t.Run("splits a full pool evenly", func(t *testing.T) {
		spec := PackSpec{PackCount: 3, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10}
		pool := NewSampler(rand.NewPCG(5, 5)).GeneratePool(testCube(10, 20, 40), spec)

		packs := Packs(pool, spec)

		require.Len(t, packs, 3)
		for _, pack := range packs {
			assert.Len(t, pack, 14)
			assert.Equal(t, TierRare, pack[0].Rarity.Tier())
		}
	})

	t.Run("later packs go short when a tier runs out", func(t *testing.T) {
		spec := PackSpec{PackCount: 2, RaresPerPack: 1, UncommonsPerPack: 3, CommonsPerPack: 10}
		pool := NewSampler(rand.NewPCG(5, 5)).GeneratePool(testCube(5, 5, 5), spec)

		packs := Packs(pool, spec)

		require.Len(t, packs, 2)
		assert.Len(t, packs[0], 1+3+5)
		assert.Len(t, packs[1], 1+2)
	})

	t.Run("no packs", func(t *testing.T) {
		assert.Nil(t, Packs(Pool{{Name: "A", Rarity: RarityRare}}, PackSpec{}))
	})

	t.Run("stops once the pool is used up", func(t *testing.T) {
		spec := PackSpec{PackCount: 5, RaresPerPack: 1, UncommonsPerPack: 0, CommonsPerPack: 0}
		pool := Pool{{Name: "A", Rarity: RarityRare}, {Name: "B", Rarity: RarityMythic}}

		packs := Packs(pool, spec)

		require.Len(t, packs, 2)
		assert.Equal(t, "A", packs[0][0].Name)
		assert.Equal(t, "B", packs[1][0].Name)
	})

	t.Run("large request over a tiny pool stays small", func(t *testing.T) {
		spec := PackSpec{PackCount: MaxPackField, RaresPerPack: MaxPackField, UncommonsPerPack: MaxPackField, CommonsPerPack: MaxPackField}
		require.NoError(t, spec.Validate())
		pool := Pool{{Name: "Opt", Rarity: RarityCommon}}

		var packs [][]Card
		allocs := testing.AllocsPerRun(20, func() {
			packs = Packs(pool, spec)
		})

		require.Len(t, packs, 1)
		assert.Len(t, packs[0], 1)
		assert.LessOrEqual(t, allocs, float64(10))
	})
}
