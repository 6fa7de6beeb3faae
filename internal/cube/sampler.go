package cube

import (
	"math/rand/v2"
	"sync"
)

// Sampler draws booster pools from a cube. It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler. A nil source seeds a fresh PCG from the
// runtime; tests pass a fixed source for repeatable draws.
func NewSampler(src rand.Source) *Sampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Sampler{rng: rand.New(src)}
}

// GeneratePool builds the pool for spec.PackCount packs: rares first, then
// uncommons, then commons. Each tier is drawn without replacement, so a tier
// with fewer cards than requested yields all of its cards and nothing more.
func (s *Sampler) GeneratePool(c Cube, spec PackSpec) Pool {
	tiers := Partition(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	pool := make(Pool, 0, len(tiers.Rares)+len(tiers.Uncommons)+len(tiers.Commons))
	pool = append(pool, s.draw(tiers.Rares, spec.TotalRares())...)
	pool = append(pool, s.draw(tiers.Uncommons, spec.TotalUncommons())...)
	pool = append(pool, s.draw(tiers.Commons, spec.TotalCommons())...)
	return pool
}

// draw picks n cards uniformly at random from bucket using a partial
// Fisher-Yates shuffle on a copy
func (s *Sampler) draw(bucket []Card, n int) []Card {
	if n > len(bucket) {
		n = len(bucket)
	}
	if n <= 0 {
		return nil
	}

	shuffled := make([]Card, len(bucket))
	copy(shuffled, bucket)
	for i := 0; i < n; i++ {
		j := i + s.rng.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

// Packs splits a generated pool back into spec.PackCount packs for display.
// Each pack takes its per-pack share of every tier in pool order; once a tier
// runs dry the remaining packs go short on that tier. Packs after the pool is
// used up are left out, so fewer than spec.PackCount may be returned.
func Packs(pool Pool, spec PackSpec) [][]Card {
	if spec.PackCount <= 0 {
		return nil
	}
	tiers := Partition(Cube(pool))
	next := func(cards *[]Card, n int) []Card {
		if n > len(*cards) {
			n = len(*cards)
		}
		if n <= 0 {
			return nil
		}
		out := (*cards)[:n]
		*cards = (*cards)[n:]
		return out
	}

	var packs [][]Card
	for i := 0; i < spec.PackCount; i++ {
		rares := next(&tiers.Rares, spec.RaresPerPack)
		uncommons := next(&tiers.Uncommons, spec.UncommonsPerPack)
		commons := next(&tiers.Commons, spec.CommonsPerPack)
		if len(rares)+len(uncommons)+len(commons) == 0 {
			break
		}
		pack := make([]Card, 0, len(rares)+len(uncommons)+len(commons))
		pack = append(pack, rares...)
		pack = append(pack, uncommons...)
		pack = append(pack, commons...)
		packs = append(packs, pack)
	}
	return packs
}
