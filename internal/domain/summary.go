package domain

// RegionCount is the number of land events attributed to one region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Summary is the diagnostic breakdown of where events occurred.
type Summary struct {
	Regions []RegionCount `json:"regions"` // region order, zero counts omitted
	Ocean   int           `json:"ocean"`
	Total   int           `json:"total"`
}

// ByRegion returns the region counts as a map.
func (s Summary) ByRegion() map[string]int {
	m := make(map[string]int, len(s.Regions))
	for _, rc := range s.Regions {
		m[rc.Region] = rc.Count
	}
	return m
}

// DebugSummary counts land events per region and reports the remainder as
// ocean events. Only land events whose region name matches a region in the
// list are attributed, so the ocean count is total minus attributed.
func DebugSummary(events []EventRecord, regions []Region) Summary {
	counts := make(map[string]int)
	for _, e := range events {
		if e.OnLand() {
			counts[e.RegionName]++
		}
	}

	s := Summary{Total: len(events), Ocean: len(events)}
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		if n := counts[r.Name]; n > 0 {
			s.Regions = append(s.Regions, RegionCount{Region: r.Name, Count: n})
			s.Ocean -= n
		}
	}
	return s
}
