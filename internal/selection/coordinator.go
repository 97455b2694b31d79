package selection

import (
	"sync"

	"github.com/ironsheep/drawing-inspector/internal/correlate"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Navigation keys.
const (
	KeyDown   = "ArrowDown"
	KeyUp     = "ArrowUp"
	KeyNext   = "n"
	KeyPrev   = "p"
	KeyEscape = "Escape"
)

// Coordinator owns the selection. All methods are safe for concurrent use;
// transitions are applied one at a time.
type Coordinator struct {
	mu    sync.Mutex
	items []model.ComparisonItem

	phase   Phase
	balloon int
	key     string
	finding model.Finding
	cat     model.Category
	matched *int
	version uint64
}

// New returns an idle coordinator over the given items.
func New(items []model.ComparisonItem) *Coordinator {
	return &Coordinator{items: items, phase: Idle}
}

// State returns the current selection with its derived views.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// SetItems replaces the comparison items after a refresh. The selection is
// kept; the highlight is re-derived from the new items.
func (c *Coordinator) SetItems(items []model.ComparisonItem) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	if c.phase == FindingSelected {
		c.rematch()
	}
	c.version++
	return c.state()
}

// ClickBalloon toggles the selection of balloon n.
func (c *Coordinator) ClickBalloon(n int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == BalloonSelected && c.balloon == n {
		c.clear()
	} else {
		c.selectBalloon(n)
	}
	return c.state()
}

// ClickRow handles a click on a comparison table row. Rows and balloons
// share one selection.
func (c *Coordinator) ClickRow(n int) State {
	return c.ClickBalloon(n)
}

// ClickFinding toggles the selection of a review finding. Selecting it runs
// the correlator; a confident match also selects that balloon.
func (c *Coordinator) ClickFinding(cat model.Category, index int, f model.Finding) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := correlate.Key(cat, index)
	if c.phase == FindingSelected && c.key == key {
		c.clear()
		return c.state()
	}
	c.phase = FindingSelected
	c.key = key
	c.cat = cat
	c.finding = f
	c.balloon = 0
	c.rematch()
	c.version++
	return c.state()
}

// Key applies a keyboard event. Keys typed into a text input and keys
// without a binding leave the state untouched.
func (c *Coordinator) Key(key string, inTextInput bool) State {
	if inTextInput {
		return c.State()
	}
	switch key {
	case KeyDown, KeyNext:
		return c.cycle(1)
	case KeyUp, KeyPrev:
		return c.cycle(-1)
	case KeyEscape:
		return c.Escape()
	}
	return c.State()
}

// Escape returns to idle.
func (c *Coordinator) Escape() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	return c.state()
}

// Reset drops the selection and the items, for example when a different
// session is loaded.
func (c *Coordinator) Reset(items []model.ComparisonItem) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.clear()
	return c.state()
}

// Flagged returns the balloon numbers keyboard navigation visits, in item
// order.
func Flagged(items []model.ComparisonItem) []int {
	var out []int
	for _, it := range items {
		if it.Status.Flagged() {
			out = append(out, it.BalloonNumber)
		}
	}
	return out
}

func (c *Coordinator) cycle(dir int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	flagged := Flagged(c.items)
	if len(flagged) == 0 {
		return c.state()
	}

	pos := -1
	if c.phase == BalloonSelected {
		for i, n := range flagged {
			if n == c.balloon {
				pos = i
				break
			}
		}
	}

	var next int
	switch {
	case pos < 0 && dir > 0:
		next = 0
	case pos < 0:
		next = len(flagged) - 1
	default:
		next = (pos + dir + len(flagged)) % len(flagged)
	}
	c.selectBalloon(flagged[next])
	return c.state()
}

func (c *Coordinator) selectBalloon(n int) {
	c.phase = BalloonSelected
	c.balloon = n
	c.key = ""
	c.finding = model.Finding{}
	c.cat = ""
	c.matched = nil
	c.version++
}

func (c *Coordinator) clear() {
	if c.phase == Idle {
		return
	}
	c.phase = Idle
	c.balloon = 0
	c.key = ""
	c.finding = model.Finding{}
	c.cat = ""
	c.matched = nil
	c.version++
}

func (c *Coordinator) rematch() {
	c.matched = nil
	if n, ok := correlate.Match(c.finding, c.items, c.cat); ok {
		c.matched = &n
	}
}

// state derives the public view. Callers hold mu.
func (c *Coordinator) state() State {
	s := State{Phase: c.phase, Version: c.version}
	switch c.phase {
	case BalloonSelected:
		n := c.balloon
		s.Balloon = &n
		if item, ok := model.FindItem(c.items, n); ok && item.Status != status.Pass {
			s.Highlight = &Highlight{Item: &item}
		}
	case FindingSelected:
		s.FindingKey = c.key
		b := &Banner{
			Key:         c.key,
			Category:    c.cat,
			Location:    c.finding.Location,
			Description: c.finding.Description,
			Value:       c.finding.SearchValue(c.cat).String(),
		}
		if c.matched != nil {
			n := *c.matched
			s.Balloon = &n
			b.Balloon = &n
			item, ok := model.FindItem(c.items, n)
			if ok && item.Status != status.Pass {
				s.Highlight = &Highlight{Item: &item}
			} else {
				s.Highlight = &Highlight{Finding: &Synthetic{Location: b.Location, Value: b.Value, Category: c.cat}}
			}
		}
		s.Banner = b
	}
	return s
}
