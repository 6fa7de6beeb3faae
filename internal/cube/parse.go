package cube

import (
	"regexp"
	"strconv"
	"strings"
)

// setCodePattern keeps user input from smuggling extra search terms into the query
var setCodePattern = regexp.MustCompile(`^[a-z0-9]{2,8}$`)

// ParseFetchQuery turns the comma-separated set list from the form into a
// FetchQuery. Codes are trimmed and lower-cased; empty entries are ignored.
func ParseFetchQuery(sets string, includeRarity bool) (FetchQuery, error) {
	var codes []string
	for _, raw := range strings.Split(sets, ",") {
		code := strings.ToLower(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		if !setCodePattern.MatchString(code) {
			return FetchQuery{}, &ValidationError{
				Field:  "sets",
				Reason: "invalid set code " + strconv.Quote(code),
			}
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return FetchQuery{}, &ValidationError{Field: "sets", Reason: ErrNoSets.Error(), Err: ErrNoSets}
	}
	return FetchQuery{Sets: codes, IncludeRarity: includeRarity}, nil
}

// ParsePackSpec parses the pack composition fields of the form
func ParsePackSpec(packs, rares, uncommons, commons string) (PackSpec, error) {
	var spec PackSpec
	fields := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"packCount", packs, &spec.PackCount},
		{"raresPerPack", rares, &spec.RaresPerPack},
		{"uncommonsPerPack", uncommons, &spec.UncommonsPerPack},
		{"commonsPerPack", commons, &spec.CommonsPerPack},
	}
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f.raw))
		if err != nil {
			return PackSpec{}, &ValidationError{
				Field:  f.name,
				Reason: "must be a whole number, got " + strconv.Quote(f.raw),
				Err:    ErrInvalidPackSpec,
			}
		}
		*f.dst = n
	}
	if err := spec.Validate(); err != nil {
		return PackSpec{}, err
	}
	return spec, nil
}
