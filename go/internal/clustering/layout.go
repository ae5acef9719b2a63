package clustering

const layoutSpacing = 1.2

// Placement is a new position for one board item
type Placement struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// Layout arranges groups as rows: one row per group starting at y=1, items left
// to right from x=0. Ids not present on the board are skipped and take no slot.
func Layout(groups [][]string, known map[string]bool) []Placement {
	var placements []Placement

	y := 1.0
	for _, group := range groups {
		x := 0.0
		for _, id := range group {
			if !known[id] {
				continue
			}
			placements = append(placements, Placement{ID: id, X: x, Y: y, Z: 0})
			x += layoutSpacing
		}
		y += layoutSpacing
	}
	return placements
}
