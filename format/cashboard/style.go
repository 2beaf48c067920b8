package cashboard

// Style is how edges are drawn.
type Style string

const (
	StyleStep       Style = "step"
	StyleSmoothStep Style = "smoothstep"
	StyleBezier     Style = "bezier"
	StyleStraight   Style = "straight"

	DefaultStyle = StyleStep
)

var styles = []Style{StyleStep, StyleSmoothStep, StyleBezier, StyleStraight}

// NextStyle returns the style after s in the cycle. Unknown styles restart it.
func NextStyle(s Style) Style {
	for i, st := range styles {
		if st == s {
			return styles[(i+1)%len(styles)]
		}
	}
	return styles[0]
}

func (s Style) Valid() bool {
	for _, st := range styles {
		if st == s {
			return true
		}
	}
	return false
}
