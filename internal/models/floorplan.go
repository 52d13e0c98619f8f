package models

// FloorPlan is the fixed desk layout, loaded from desks.yaml. Desk numbers are
// arranged in display rows the way they stand in the room.
type FloorPlan struct {
	Rows [][]int `yaml:"rows"`
}

// Contains reports whether the desk exists on the floor plan.
func (p *FloorPlan) Contains(desk int) bool {
	for _, row := range p.Rows {
		for _, d := range row {
			if d == desk {
				return true
			}
		}
	}
	return false
}

// Desks returns every desk number in row order.
func (p *FloorPlan) Desks() []int {
	var desks []int
	for _, row := range p.Rows {
		desks = append(desks, row...)
	}
	return desks
}
