package cache

// Region is the functional classification of a coordinate relative to a
// transcript. Larger values take precedence.
type Region uint8

// Regions in ascending precedence.
const (
	RegionIntergenic Region = iota
	RegionIntronic
	RegionUTR
	RegionExonic
)

func (r Region) String() string {
	switch r {
	case RegionIntronic:
		return "INTRONIC"
	case RegionUTR:
		return "UTR"
	case RegionExonic:
		return "EXONIC"
	default:
		return "Intergenic"
	}
}

// RegionSet is a union of regions.
type RegionSet uint8

// Add returns the set with r added.
func (s RegionSet) Add(r Region) RegionSet {
	return s | 1<<r
}

// Union returns the union of two sets.
func (s RegionSet) Union(o RegionSet) RegionSet {
	return s | o
}

// Has reports whether r is in the set.
func (s RegionSet) Has(r Region) bool {
	return s&(1<<r) != 0
}

// Empty reports whether no genic region is in the set.
func (s RegionSet) Empty() bool {
	return s&^(1<<RegionIntergenic) == 0
}

// Highest returns the region with the highest precedence, or
// RegionIntergenic for an empty set.
func (s RegionSet) Highest() Region {
	for r := RegionExonic; r > RegionIntergenic; r-- {
		if s.Has(r) {
			return r
		}
	}
	return RegionIntergenic
}
