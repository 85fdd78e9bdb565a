package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/tui/styles"
)

// Layout constants for the grid
const (
	cellWidth   = 24
	cellHeight  = 4
	filterLines = 1
)

// Grid is the scrollable product browser used on the home and likes tabs
type Grid struct {
	products []*domain.Product

	// Selection
	cursor int
	offset int // first visible row

	// Dimensions
	width   int
	height  int
	focused bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filteredIdx  []int // indices into products, nil when unfiltered
}

// productTitles implements fuzzy.Source over the product slice
type productTitles []*domain.Product

func (p productTitles) String(i int) string { return p[i].Title }
func (p productTitles) Len() int            { return len(p) }

// NewGrid creates a grid component
func NewGrid() Grid {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return Grid{filterInput: ti}
}

// SetProducts replaces the grid content
func (g *Grid) SetProducts(products []*domain.Product) {
	g.products = products
	g.clampCursor()
	g.applyFilter()
}

// UpdateProduct replaces a single product in place, preserving cursor and
// filter. Used when a cache write lands for a visible record.
func (g *Grid) UpdateProduct(p *domain.Product) {
	for i, existing := range g.products {
		if existing.ID == p.ID {
			g.products[i] = p
			return
		}
	}
}

// Selected returns the product under the cursor, nil when empty
func (g *Grid) Selected() *domain.Product {
	visible := g.visible()
	if g.cursor < 0 || g.cursor >= len(visible) {
		return nil
	}
	return visible[g.cursor]
}

// SetSize updates the render dimensions
func (g *Grid) SetSize(width, height int) {
	g.width = width
	g.height = height
}

// Focus marks the grid as the active pane
func (g *Grid) Focus() { g.focused = true }

// Blur removes focus
func (g *Grid) Blur() { g.focused = false }

// FilterActive reports whether the filter input owns keystrokes
func (g *Grid) FilterActive() bool { return g.filterActive }

// StartFilter opens the filter input
func (g *Grid) StartFilter() tea.Cmd {
	g.filterActive = true
	return g.filterInput.Focus()
}

// ClearFilter closes the filter and restores the full list
func (g *Grid) ClearFilter() {
	g.filterActive = false
	g.filterInput.SetValue("")
	g.filterInput.Blur()
	g.filteredIdx = nil
	g.clampCursor()
}

// Update handles key and filter input
func (g *Grid) Update(msg tea.Msg) tea.Cmd {
	if g.filterActive {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "esc":
				g.ClearFilter()
				return nil
			case "enter":
				g.filterActive = false
				g.filterInput.Blur()
				return nil
			}
		}
		var cmd tea.Cmd
		g.filterInput, cmd = g.filterInput.Update(msg)
		g.applyFilter()
		return cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		cols := g.columns()
		switch key.String() {
		case "k", "up":
			g.move(-cols)
		case "j", "down":
			g.move(cols)
		case "h", "left":
			g.move(-1)
		case "l", "right":
			g.move(1)
		case "g", "home":
			g.cursor = 0
		case "G", "end":
			g.cursor = len(g.visible()) - 1
		}
		g.scrollToCursor()
	}
	return nil
}

// View renders the grid
func (g Grid) View() string {
	visible := g.visible()
	if len(visible) == 0 {
		empty := styles.DimStyle.Render("Nothing here yet.")
		return lipgloss.Place(g.width, g.height, lipgloss.Center, lipgloss.Center, empty)
	}

	cols := g.columns()
	rowsVisible := g.rowsVisible()

	var rows []string
	if g.filterActive || g.filterInput.Value() != "" {
		rows = append(rows, g.filterInput.View())
	}

	start := g.offset * cols
	for r := 0; r < rowsVisible; r++ {
		var cells []string
		for c := 0; c < cols; c++ {
			idx := start + r*cols + c
			if idx >= len(visible) {
				break
			}
			cells = append(cells, g.renderCell(visible[idx], idx == g.cursor))
		}
		if len(cells) == 0 {
			break
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return strings.Join(rows, "\n")
}

func (g Grid) renderCell(p *domain.Product, selected bool) string {
	heart := styles.UnlikedHeart
	if p.Liked {
		heart = styles.LikedHeart
	}

	status := ""
	if p.Sold {
		status = " " + styles.SoldMark + styles.DimStyle.Render(" sold")
	} else if p.RequestState() == domain.RequestPending {
		status = " " + styles.PendingMark + styles.DimStyle.Render(" reserved")
	}

	title := styles.Truncate(p.Title, cellWidth-4)
	meta := fmt.Sprintf("%s  %s %d%s", p.FormattedPrice(), heart, p.LikeCount, status)

	body := styles.TitleStyle.Render(title) + "\n" + styles.SubtitleStyle.Render(meta)
	cell := styles.GridCellStyle
	if selected {
		cell = styles.GridCellSelectedStyle
	}
	return cell.Width(cellWidth).Render(body)
}

// visible returns the products after filtering
func (g Grid) visible() []*domain.Product {
	if g.filteredIdx == nil {
		return g.products
	}
	out := make([]*domain.Product, len(g.filteredIdx))
	for i, idx := range g.filteredIdx {
		out[i] = g.products[idx]
	}
	return out
}

func (g *Grid) applyFilter() {
	query := g.filterInput.Value()
	if query == "" {
		g.filteredIdx = nil
		g.clampCursor()
		return
	}
	matches := fuzzy.FindFrom(query, productTitles(g.products))
	g.filteredIdx = make([]int, len(matches))
	for i, m := range matches {
		g.filteredIdx[i] = m.Index
	}
	g.cursor = 0
	g.offset = 0
}

func (g Grid) columns() int {
	cols := g.width / cellWidth
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (g Grid) rowsVisible() int {
	rows := (g.height - filterLines) / cellHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (g *Grid) move(delta int) {
	g.cursor += delta
	g.clampCursor()
}

func (g *Grid) clampCursor() {
	n := len(g.visible())
	if g.cursor >= n {
		g.cursor = n - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
}

func (g *Grid) scrollToCursor() {
	cols := g.columns()
	row := g.cursor / cols
	if row < g.offset {
		g.offset = row
	}
	if row >= g.offset+g.rowsVisible() {
		g.offset = row - g.rowsVisible() + 1
	}
}
