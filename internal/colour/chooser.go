package colour

// Listener is called with the new colour after every change.
type Listener func(Colour)

// Chooser is the model behind the colour picker. Every setter updates the
// stored colour and notifies the registered listeners, so the RGB, HSV,
// alpha and text views stay in sync without binding to each other.
type Chooser struct {
	colour    Colour
	hsv       HSV
	// listeners run in registration order; removed ones are left nil.
	listeners []Listener
}

// NewChooser returns a chooser holding initial.
func NewChooser(initial Colour) *Chooser {
	return &Chooser{colour: initial, hsv: initial.HSV()}
}

// OnChange registers l and returns a function that removes it. Listeners
// are called in the order they were registered.
func (c *Chooser) OnChange(l Listener) func() {
	id := len(c.listeners)
	c.listeners = append(c.listeners, l)
	return func() { c.listeners[id] = nil }
}

// Colour returns the current colour including alpha.
func (c *Chooser) Colour() Colour {
	return c.colour
}

// HSV returns the last hue, saturation and value. Hue survives edits that
// pass through grey.
func (c *Chooser) HSV() HSV {
	return c.hsv
}

// Text returns the colour as #rrggbb.
func (c *Chooser) Text() string {
	return c.colour.Hex()
}

// SetColour replaces the colour channels. The alpha of col is ignored, the
// chooser keeps its own alpha.
func (c *Chooser) SetColour(col Colour) {
	c.SetRGB(col.Red, col.Green, col.Blue)
}

// SetRGB replaces the colour channels.
func (c *Chooser) SetRGB(r, g, b uint8) {
	next := Colour{Red: r, Green: g, Blue: b, Alpha: c.colour.Alpha}
	if next == c.colour {
		return
	}
	c.colour = next
	c.hsv = next.HSV()
	c.notify()
}

// SetHSV replaces the colour channels from hsv.
func (c *Chooser) SetHSV(hsv HSV) {
	next := FromHSV(hsv, c.colour.Alpha)
	if next == c.colour && hsv == c.hsv {
		return
	}
	c.colour = next
	c.hsv = hsv
	c.notify()
}

// SetAlpha replaces the alpha channel.
func (c *Chooser) SetAlpha(a uint8) {
	if a == c.colour.Alpha {
		return
	}
	c.colour.Alpha = a
	c.notify()
}

// SetText parses s and applies its colour channels. It reports whether s was
// a valid colour; invalid input leaves the chooser untouched.
func (c *Chooser) SetText(s string) bool {
	col, err := Parse(s)
	if err != nil {
		return false
	}
	c.SetColour(col)
	return true
}

func (c *Chooser) notify() {
	for _, l := range c.listeners {
		if l != nil {
			l(c.colour)
		}
	}
}
