package suggest

// Menu tracks keyboard navigation over a filtered item list. Arrow
// navigation wraps around both ends.
type Menu struct {
	items    []Item
	selected int
	open     bool
}

// NewMenu opens a menu over the given items with the first selected.
func NewMenu(items []Item) *Menu {
	return &Menu{items: items, open: len(items) > 0}
}

// SetItems replaces the visible items, clamping the selection.
func (m *Menu) SetItems(items []Item) {
	m.items = items
	m.open = len(items) > 0
	if m.selected >= len(items) {
		m.selected = 0
	}
}

func (m *Menu) IsOpen() bool {
	return m.open
}

func (m *Menu) Selected() (Item, bool) {
	if !m.open || m.selected >= len(m.items) {
		return Item{}, false
	}
	return m.items[m.selected], true
}

// Next moves the selection down, wrapping to the top.
func (m *Menu) Next() {
	if !m.open || len(m.items) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.items)
}

// Prev moves the selection up, wrapping to the bottom.
func (m *Menu) Prev() {
	if !m.open || len(m.items) == 0 {
		return
	}
	m.selected = (m.selected - 1 + len(m.items)) % len(m.items)
}

// Select commits the current item and closes the menu.
func (m *Menu) Select() (Item, bool) {
	item, ok := m.Selected()
	if ok {
		m.open = false
	}
	return item, ok
}

// Dismiss closes the menu without selecting.
func (m *Menu) Dismiss() {
	m.open = false
}
