package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/tui/styles"
)

// Tab identifies one of the top-level screens
type Tab int

const (
	TabHome Tab = iota
	TabLikes
	TabActivity
	TabProfile
)

var tabNames = [...]string{"Home", "Likes", "Activity", "Profile"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "?"
}

// TabBar renders the top-level tabs with badge counters
type TabBar struct {
	active Tab
	counts domain.Counts
	width  int
}

// NewTabBar creates a tab bar starting on Home
func NewTabBar() TabBar {
	return TabBar{}
}

// SetActive switches the highlighted tab
func (t *TabBar) SetActive(tab Tab) { t.active = tab }

// Active returns the highlighted tab
func (t *TabBar) Active() Tab { return t.active }

// Next cycles to the following tab
func (t *TabBar) Next() { t.active = (t.active + 1) % Tab(len(tabNames)) }

// SetCounts updates the badge counters
func (t *TabBar) SetCounts(counts domain.Counts) { t.counts = counts }

// SetWidth updates the render width
func (t *TabBar) SetWidth(width int) { t.width = width }

// View renders the tab bar
func (t TabBar) View() string {
	var cells []string
	for i := range tabNames {
		tab := Tab(i)
		label := tab.String()
		if badge := t.badge(tab); badge > 0 {
			label = fmt.Sprintf("%s %s", label, styles.BadgeStyle.Render(fmt.Sprintf("%d", badge)))
		}
		if tab == t.active {
			cells = append(cells, styles.ActiveTabStyle.Render(label))
		} else {
			cells = append(cells, styles.InactiveTabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	if t.width > lipgloss.Width(row) {
		row += styles.DimStyle.Render(strings.Repeat(" ", t.width-lipgloss.Width(row)))
	}
	return row
}

func (t TabBar) badge(tab Tab) int {
	switch tab {
	case TabActivity:
		return t.counts.UnseenActivities
	case TabProfile:
		return t.counts.UnreadChats
	default:
		return 0
	}
}
