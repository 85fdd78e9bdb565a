package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/tui/styles"
)

// ActivityList renders the notification feed
type ActivityList struct {
	activities []*domain.Activity

	cursor int
	offset int

	width  int
	height int
}

// NewActivityList creates an empty activity list
func NewActivityList() ActivityList {
	return ActivityList{}
}

// SetActivities replaces the list content, keeping the cursor in range
func (l *ActivityList) SetActivities(activities []*domain.Activity) {
	l.activities = activities
	if l.cursor >= len(activities) {
		l.cursor = len(activities) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Selected returns the activity under the cursor, nil when empty
func (l *ActivityList) Selected() *domain.Activity {
	if l.cursor < 0 || l.cursor >= len(l.activities) {
		return nil
	}
	return l.activities[l.cursor]
}

// SetSize updates the render dimensions
func (l *ActivityList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Update handles cursor movement
func (l *ActivityList) Update(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}
	switch key.String() {
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
		}
	case "j", "down":
		if l.cursor < len(l.activities)-1 {
			l.cursor++
		}
	case "g", "home":
		l.cursor = 0
	case "G", "end":
		l.cursor = len(l.activities) - 1
	}

	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
}

// View renders the list
func (l ActivityList) View() string {
	if len(l.activities) == 0 {
		empty := styles.DimStyle.Render("No activity yet.")
		return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, empty)
	}

	end := l.offset + l.height
	if end > len(l.activities) {
		end = len(l.activities)
	}

	var rows []string
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.renderRow(l.activities[i], i == l.cursor))
	}
	return strings.Join(rows, "\n")
}

func (l ActivityList) renderRow(a *domain.Activity, selected bool) string {
	dot := " "
	if !a.Read {
		dot = styles.UnreadDot
	}

	line := fmt.Sprintf("%s %s", dot, styles.Truncate(Summary(a), l.width-4))
	switch {
	case selected:
		return styles.SelectedItemStyle.Width(l.width).Render(line)
	case !a.Read:
		return styles.UnreadItemStyle.Width(l.width).Render(line)
	default:
		return styles.NormalItemStyle.Width(l.width).Render(line)
	}
}

// Summary renders a one-line human description of an activity
func Summary(a *domain.Activity) string {
	who := a.LeadSender().Nickname
	if who == "" {
		who = "Someone"
	}
	if n := a.OtherCount(); n > 0 {
		who = fmt.Sprintf("%s and %d others", who, n)
	}

	product := ""
	if a.Product != nil {
		product = fmt.Sprintf(" %q", a.Product.Title)
	}

	switch a.Type {
	case domain.ActivityProductLike:
		return fmt.Sprintf("%s liked your listing%s", who, product)
	case domain.ActivityUserLike:
		return fmt.Sprintf("%s liked your profile", who)
	case domain.ActivityChat:
		return fmt.Sprintf("%s sent you a message", who)
	case domain.ActivityPurchaseRequest:
		return fmt.Sprintf("%s wants to buy%s", who, product)
	case domain.ActivityPurchaseAccepted:
		return fmt.Sprintf("%s accepted your request%s", who, product)
	case domain.ActivityReviewPrompt:
		return fmt.Sprintf("How was your trade with %s?", who)
	case domain.ActivityReviewReceived:
		return fmt.Sprintf("%s left you a review", who)
	case domain.ActivityFollow:
		return fmt.Sprintf("%s started following you", who)
	default:
		return fmt.Sprintf("%s did something new", who)
	}
}
