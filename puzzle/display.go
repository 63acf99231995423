package puzzle

import (
	"strings"
)

// ToDisplayText renders the state as text. Horizontal cars are drawn as
// "< - >", vertical cars as "^ | v". The gap in the frame is the exit; it
// shows an arrow once the goal car has left.
func (s *State) ToDisplayText() string {
	p := s.puzzle
	grid := s.Grid()
	n := p.gridSize
	goalVertical := p.orient[GoalCar] == Vertical

	var sb strings.Builder
	sb.WriteString("+-")
	sb.WriteString(strings.Repeat("--", n))
	sb.WriteString("+\n")

	for y := 0; y < n; y++ {
		sb.WriteString("| ")
		for x := 0; x < n; x++ {
			v := grid.Cell(x, y)
			if v == Empty {
				sb.WriteString(". ")
				continue
			}
			last := s.pos[v] + p.size[v] - 1
			if p.orient[v] == Vertical {
				switch y {
				case s.pos[v]:
					sb.WriteString("^ ")
				case last:
					sb.WriteString("v ")
				default:
					sb.WriteString("| ")
				}
			} else {
				switch x {
				case s.pos[v]:
					sb.WriteString("< ")
				case last:
					sb.WriteString("> ")
				default:
					sb.WriteString("- ")
				}
			}
		}
		switch {
		case goalVertical || y != p.fixed[GoalCar]:
			sb.WriteString("|\n")
		case s.IsGoal():
			sb.WriteString(">\n")
		default:
			sb.WriteString(" \n")
		}
	}

	sb.WriteString("+-")
	for x := 0; x < n; x++ {
		switch {
		case !goalVertical || x != p.fixed[GoalCar]:
			sb.WriteString("--")
		case s.IsGoal():
			sb.WriteString("v-")
		default:
			sb.WriteString(" -")
		}
	}
	sb.WriteString("+\n")
	return sb.String()
}
