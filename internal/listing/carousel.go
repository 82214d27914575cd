package listing

// Carousel tracks which photo is on screen. Navigation wraps in both
// directions; every method is safe on an empty sequence.
type Carousel struct {
	index int
}

// Index returns the current photo position.
func (c *Carousel) Index() int { return c.index }

// Next advances over a sequence of n photos.
func (c *Carousel) Next(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	if c.index < n-1 {
		c.index++
	} else {
		c.index = 0
	}
}

// Prev steps back over a sequence of n photos.
func (c *Carousel) Prev(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	if c.index > 0 {
		c.index = min(c.index, n) - 1
	} else {
		c.index = n - 1
	}
}

// Go jumps to index when it lies within n photos.
func (c *Carousel) Go(index, n int) {
	if index >= 0 && index < n {
		c.index = index
	}
}

// Removed corrects the position after a photo removal left n photos.
func (c *Carousel) Removed(n int) {
	switch {
	case n == 0:
		c.index = 0
	case c.index >= n:
		c.index = n - 1
	}
}

// Current returns the photo at the current position, if any.
func (c *Carousel) Current(photos []string) (string, bool) {
	if c.index < 0 || c.index >= len(photos) {
		return "", false
	}
	return photos[c.index], true
}
