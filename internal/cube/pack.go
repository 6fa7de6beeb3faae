package cube

import "fmt"

// MaxPackField bounds every PackSpec field accepted from a form
const MaxPackField = 1000

// PackSpec describes how many packs to open and what each one contains
type PackSpec struct {
	PackCount        int `json:"packCount"`
	RaresPerPack     int `json:"raresPerPack"`
	UncommonsPerPack int `json:"uncommonsPerPack"`
	CommonsPerPack   int `json:"commonsPerPack"`
}

func (s PackSpec) TotalRares() int     { return s.RaresPerPack * s.PackCount }
func (s PackSpec) TotalUncommons() int { return s.UncommonsPerPack * s.PackCount }
func (s PackSpec) TotalCommons() int   { return s.CommonsPerPack * s.PackCount }

// PackSize is the number of cards in one full pack
func (s PackSpec) PackSize() int {
	return s.RaresPerPack + s.UncommonsPerPack + s.CommonsPerPack
}

// Validate rejects negative or absurdly large counts
func (s PackSpec) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"packCount", s.PackCount},
		{"raresPerPack", s.RaresPerPack},
		{"uncommonsPerPack", s.UncommonsPerPack},
		{"commonsPerPack", s.CommonsPerPack},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &ValidationError{
				Field:  f.name,
				Reason: fmt.Sprintf("must not be negative, got %d", f.value),
				Err:    ErrInvalidPackSpec,
			}
		}
		if f.value > MaxPackField {
			return &ValidationError{
				Field:  f.name,
				Reason: fmt.Sprintf("must be at most %d, got %d", MaxPackField, f.value),
				Err:    ErrInvalidPackSpec,
			}
		}
	}
	return nil
}
