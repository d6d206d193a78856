package reference

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Provider is a registered catch provider. FullName is the identity used at
// submission time and is matched exactly.
type Provider struct {
	ID         string
	FullName   string
	OriginHint string
}

// Species is a catch species with an optional suggested unit price (MT/kg).
type Species struct {
	Name      string
	UnitPrice *decimal.Decimal
}

// OriginSet is the sorted set of permitted origins. Membership ignores case;
// the first spelling seen wins. It is not safe for concurrent use; the owning
// form serializes every access under its lock.
type OriginSet struct {
	values []string
}

// NewOriginSet builds a set from values, dropping blanks and case-insensitive
// duplicates.
func NewOriginSet(values ...string) *OriginSet {
	s := &OriginSet{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := s.Find(v); !ok {
			s.values = append(s.values, v)
		}
	}
	sortNatural(s.values)
	return s
}

// Find returns the canonical entry equal to v ignoring case.
func (s *OriginSet) Find(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, existing := range s.values {
		if strings.EqualFold(existing, v) {
			return existing, true
		}
	}
	return "", false
}

// Contains reports whether v is an exact member.
func (s *OriginSet) Contains(v string) bool {
	for _, existing := range s.values {
		if existing == v {
			return true
		}
	}
	return false
}

// Add inserts v unless an entry already matches it ignoring case, and
// returns the canonical entry. added is false when v was already present.
func (s *OriginSet) Add(v string) (canonical string, added bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if existing, ok := s.Find(v); ok {
		return existing, false
	}
	s.values = append(s.values, v)
	sortNatural(s.values)
	return v, true
}

// Values returns a copy of the sorted entries.
func (s *OriginSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of entries.
func (s *OriginSet) Len() int {
	return len(s.values)
}

// Clone returns an independent copy.
func (s *OriginSet) Clone() *OriginSet {
	return &OriginSet{values: s.Values()}
}

// Set bundles the three reference lists loaded for one session.
type Set struct {
	Providers []Provider
	Origins   *OriginSet
	Species   []Species
}

// Provider returns the provider whose FullName equals name exactly.
func (s *Set) Provider(name string) (Provider, bool) {
	for _, p := range s.Providers {
		if p.FullName == name {
			return p, true
		}
	}
	return Provider{}, false
}

// SpeciesNamed returns the species whose Name equals name exactly.
func (s *Set) SpeciesNamed(name string) (Species, bool) {
	for _, sp := range s.Species {
		if sp.Name == name {
			return sp, true
		}
	}
	return Species{}, false
}

// sortNatural orders display values the way Portuguese speakers expect
// (accents do not push "Ângela" after "Zeca").
func sortNatural(values []string) {
	c := collate.New(language.Portuguese, collate.IgnoreCase)
	c.SortStrings(values)
}

func sortProviders(ps []Provider) {
	c := collate.New(language.Portuguese, collate.IgnoreCase)
	sort.SliceStable(ps, func(i, j int) bool {
		return c.CompareString(ps[i].FullName, ps[j].FullName) < 0
	})
}

func sortSpecies(ss []Species) {
	c := collate.New(language.Portuguese, collate.IgnoreCase)
	sort.SliceStable(ss, func(i, j int) bool {
		return c.CompareString(ss[i].Name, ss[j].Name) < 0
	})
}
