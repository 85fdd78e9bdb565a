// Package tui implements the terminal user interface.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lwgren/loppis/internal/cache"
	"github.com/lwgren/loppis/internal/counter"
	"github.com/lwgren/loppis/internal/domain"
	"github.com/lwgren/loppis/internal/feed"
	"github.com/lwgren/loppis/internal/likes"
	"github.com/lwgren/loppis/internal/purchase"
	"github.com/lwgren/loppis/internal/review"
	"github.com/lwgren/loppis/internal/search"
	"github.com/lwgren/loppis/internal/tui/components"
	"github.com/lwgren/loppis/internal/tui/styles"
)

const statusClearDelay = 3 * time.Second

// Services bundles everything the TUI drives
type Services struct {
	Client   domain.MarketClient
	Store    *cache.Store
	Counters *counter.Synchronizer
	Feed     *feed.Service
	Likes    *likes.Service
	Purchase *purchase.Service
	Review   *review.Gate
	Search   *search.Service
	Logger   *slog.Logger
	PageSize int
}

// Model is the root Bubble Tea model
type Model struct {
	svc      Services
	observer *Observer
	keys     KeyMap

	tabs     components.TabBar
	home     components.Grid
	liked    components.Grid
	activity components.ActivityList

	me            *domain.User
	likedProfiles []*domain.User
	profileCursor int
	recentTerms   []string
	homePage      int
	homeHasMore   bool

	// Review modal state
	reviewing    *domain.Activity
	reviewRating int
	reviewInput  textinput.Model

	width  int
	height int

	status    string
	statusErr bool
	showHelp  bool
	unsubs    []func()
}

// NewModel creates the root model and wires cache/counter subscriptions
func NewModel(svc Services) *Model {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	if svc.PageSize <= 0 {
		svc.PageSize = 20
	}

	ri := textinput.New()
	ri.Placeholder = "say something about the trade..."
	ri.Prompt = "> "
	ri.CharLimit = 200

	m := &Model{
		svc:          svc,
		observer:     NewObserver(),
		keys:         DefaultKeyMap(),
		tabs:         components.NewTabBar(),
		home:         components.NewGrid(),
		liked:        components.NewGrid(),
		activity:     components.NewActivityList(),
		homePage:     1,
		reviewRating: 5,
		reviewInput:  ri,
	}

	m.unsubs = append(m.unsubs,
		m.observer.WatchCounters(svc.Counters),
		m.observer.WatchCollection(svc.Store, cache.CollectionProducts),
		m.observer.WatchCollection(svc.Store, cache.CollectionUsers),
		m.observer.WatchCollection(svc.Store, cache.CollectionActivities),
	)
	return m
}

// Close releases the model's subscriptions
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
}

// Init kicks off the initial loads
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		LoadMeCmd(m.svc.Client, m.svc.Store),
		LoadProductsCmd(m.svc.Client, m.svc.Store, 1, m.svc.PageSize),
		RefreshFeedCmd(m.svc.Feed),
		RefreshCountsCmd(m.svc.Counters),
		LoadRecentSearchesCmd(m.svc.Search),
		m.observer.WaitForCounts(),
		m.observer.WaitForCacheEvent(),
	)
}

// Update routes messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case MeLoadedMsg:
		m.me = msg.User
		return m, nil

	case ProductsLoadedMsg:
		m.homePage = msg.Page
		m.homeHasMore = msg.HasMore
		m.home.SetProducts(m.cachedProducts(cache.ProductListKey()))
		return m, nil

	case LikedProductsLoadedMsg:
		m.liked.SetProducts(msg.Products)
		return m, nil

	case LikedProfilesLoadedMsg:
		m.likedProfiles = msg.Profiles
		if m.profileCursor >= len(msg.Profiles) {
			m.profileCursor = 0
		}
		return m, nil

	case ActivitiesLoadedMsg:
		m.activity.SetActivities(msg.Activities)
		return m, nil

	case RecentSearchesLoadedMsg:
		m.recentTerms = msg.Terms
		return m, nil

	case LikeSettledMsg:
		if msg.Failure != nil {
			return m, m.setStatus(likeFailureText(msg.Failure), true)
		}
		return m, nil

	case RequestSettledMsg:
		return m.requestSettled(msg)

	case ReviewSubmittedMsg:
		if msg.Err != nil {
			return m, m.setStatus("Review failed: "+msg.Err.Error(), true)
		}
		return m, m.setStatus("Review sent. Thanks!", false)

	case ActivityReadMsg:
		if msg.Err != nil {
			return m, m.setStatus("Couldn't update activity, try again.", true)
		}
		return m, nil

	case NavigateMsg:
		return m.navigate(msg.Nav)

	case CountsMsg:
		m.tabs.SetCounts(msg.Counts)
		return m, m.observer.WaitForCounts()

	case CacheEventMsg:
		m.applyCacheEvent(msg)
		return m, m.observer.WaitForCacheEvent()

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.status = ""
		return m, nil

	case ErrMsg:
		m.svc.Logger.Warn("ui operation failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true)
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal and filter input take precedence over global bindings.
	if m.reviewing != nil {
		return m.updateReviewModal(msg)
	}
	if m.activeGrid() != nil && m.activeGrid().FilterActive() {
		return m, m.activeGrid().Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Tab1):
		return m.switchTab(components.TabHome)
	case key.Matches(msg, m.keys.Tab2):
		return m.switchTab(components.TabLikes)
	case key.Matches(msg, m.keys.Tab3):
		return m.switchTab(components.TabActivity)
	case key.Matches(msg, m.keys.Tab4):
		return m.switchTab(components.TabProfile)
	case key.Matches(msg, m.keys.NextTab):
		m.tabs.Next()
		return m.switchTab(m.tabs.Active())
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCurrent()
	}

	switch m.tabs.Active() {
	case components.TabHome, components.TabLikes:
		return m.updateGridKeys(msg)
	case components.TabActivity:
		return m.updateActivityKeys(msg)
	case components.TabProfile:
		return m.updateProfileKeys(msg)
	}
	return m, nil
}

func (m *Model) updateGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	grid := m.activeGrid()

	switch {
	case key.Matches(msg, m.keys.Filter):
		return m, grid.StartFilter()
	case key.Matches(msg, m.keys.Like):
		if p := grid.Selected(); p != nil {
			return m, ToggleProductLikeCmd(m.svc.Likes, p.ID)
		}
	case key.Matches(msg, m.keys.Accept):
		return m, m.purchaseAction(purchase.ActionAccept)
	case key.Matches(msg, m.keys.Decline):
		return m, m.purchaseAction(purchase.ActionDecline)
	case key.Matches(msg, m.keys.Cancel):
		return m, m.purchaseAction(purchase.ActionCancel)
	case key.Matches(msg, m.keys.Enter):
		if p := grid.Selected(); p != nil {
			return m, LoadProductCmd(m.svc.Client, m.svc.Store, p.ID)
		}
	case msg.String() == "]":
		if m.tabs.Active() == components.TabHome && m.homeHasMore {
			return m, LoadProductsCmd(m.svc.Client, m.svc.Store, m.homePage+1, m.svc.PageSize)
		}
	}
	return m, grid.Update(msg)
}

func (m *Model) updateActivityKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if a := m.activity.Selected(); a != nil {
			return m, ResolveActivityCmd(m.svc.Feed, a)
		}
	case key.Matches(msg, m.keys.MarkRead):
		if a := m.activity.Selected(); a != nil {
			return m, MarkActivityReadCmd(m.svc.Feed, a.ID)
		}
	case key.Matches(msg, m.keys.MarkAllRead):
		return m, MarkAllReadCmd(m.svc.Feed)
	case key.Matches(msg, m.keys.Review):
		if a := m.activity.Selected(); a != nil && m.me != nil && m.svc.Review.CanReview(a, m.me.ID) {
			m.reviewing = a
			m.reviewRating = 5
			m.reviewInput.SetValue("")
			return m, m.reviewInput.Focus()
		}
		return m, m.setStatus("Nothing to review here.", false)
	}
	m.activity.Update(msg)
	return m, nil
}

func (m *Model) updateProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.profileCursor > 0 {
			m.profileCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.profileCursor < len(m.likedProfiles)-1 {
			m.profileCursor++
		}
	case key.Matches(msg, m.keys.Like):
		if m.profileCursor < len(m.likedProfiles) {
			return m, ToggleUserLikeCmd(m.svc.Likes, m.likedProfiles[m.profileCursor].ID)
		}
	}
	return m, nil
}

func (m *Model) updateReviewModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.reviewing = nil
		return m, nil
	case "1", "2", "3", "4", "5":
		if m.reviewInput.Value() == "" {
			m.reviewRating = int(msg.String()[0] - '0')
			return m, nil
		}
	case "enter":
		a := m.reviewing
		m.reviewing = nil
		input := domain.ReviewInput{
			RevieweeID: a.LeadSender().ID,
			ProductID:  a.Product.ID,
			Rating:     m.reviewRating,
			Comment:    m.reviewInput.Value(),
		}
		return m, SubmitReviewCmd(m.svc.Review, a, m.me.ID, input)
	}

	var cmd tea.Cmd
	m.reviewInput, cmd = m.reviewInput.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(tab components.Tab) (tea.Model, tea.Cmd) {
	m.tabs.SetActive(tab)
	switch tab {
	case components.TabLikes:
		return m, LoadLikedProductsCmd(m.svc.Client, m.svc.Store, m.svc.PageSize)
	case components.TabActivity:
		// Focusing the activity tab clears the badge; the next poll is
		// authoritative if the server disagrees.
		m.svc.Counters.ResetUnseen()
		return m, RefreshFeedCmd(m.svc.Feed)
	case components.TabProfile:
		return m, LoadLikedProfilesCmd(m.svc.Client, m.svc.Store, m.svc.PageSize)
	}
	return m, nil
}

func (m *Model) refreshCurrent() tea.Cmd {
	switch m.tabs.Active() {
	case components.TabLikes:
		return LoadLikedProductsCmd(m.svc.Client, m.svc.Store, m.svc.PageSize)
	case components.TabActivity:
		return RefreshFeedCmd(m.svc.Feed)
	case components.TabProfile:
		return tea.Batch(
			LoadMeCmd(m.svc.Client, m.svc.Store),
			LoadLikedProfilesCmd(m.svc.Client, m.svc.Store, m.svc.PageSize),
			LoadRecentSearchesCmd(m.svc.Search),
		)
	default:
		return LoadProductsCmd(m.svc.Client, m.svc.Store, 1, m.svc.PageSize)
	}
}

func (m *Model) purchaseAction(action purchase.Action) tea.Cmd {
	grid := m.activeGrid()
	p := grid.Selected()
	if p == nil || m.me == nil {
		return nil
	}
	return PurchaseActionCmd(m.svc.Purchase, m.svc.Feed, action, p.ID, m.me.ID)
}

func (m *Model) requestSettled(msg RequestSettledMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		return m, tea.Batch(
			m.setStatus("Request updated.", false),
			LoadProductCmd(m.svc.Client, m.svc.Store, msg.ProductID),
		)
	case errors.Is(msg.Err, domain.ErrStateChanged):
		return m, tea.Batch(
			m.setStatus("This request changed elsewhere, refreshing...", true),
			LoadProductCmd(m.svc.Client, m.svc.Store, msg.ProductID),
		)
	case errors.Is(msg.Err, purchase.ErrNotAllowed):
		return m, m.setStatus("You can't do that on this listing.", true)
	default:
		f := domain.AsFailure(msg.Err)
		if f.Kind == domain.FailureConflict {
			return m, tea.Batch(
				m.setStatus("Already resolved elsewhere, refreshing...", true),
				LoadProductCmd(m.svc.Client, m.svc.Store, msg.ProductID),
			)
		}
		return m, m.setStatus("Request failed: "+msg.Err.Error(), true)
	}
}

func (m *Model) navigate(nav feed.Navigation) (tea.Model, tea.Cmd) {
	switch nav.Kind {
	case feed.NavProduct:
		m.tabs.SetActive(components.TabHome)
		return m, LoadProductCmd(m.svc.Client, m.svc.Store, nav.ProductID)
	case feed.NavProfile, feed.NavChat:
		m.tabs.SetActive(components.TabProfile)
		return m, nil
	default:
		return m, m.setStatus(nav.Message, false)
	}
}

// applyCacheEvent pushes a cache write into whichever views render it
func (m *Model) applyCacheEvent(msg CacheEventMsg) {
	switch msg.Key.Collection {
	case cache.CollectionProducts:
		if p, ok := msg.Record.Payload.(*domain.Product); ok && p != nil {
			m.home.UpdateProduct(p)
			m.liked.UpdateProduct(p)
		} else if msg.Key.ID == "" {
			m.home.SetProducts(m.cachedProducts(cache.ProductListKey()))
		}
	case cache.CollectionUsers:
		if u, ok := msg.Record.Payload.(*domain.User); ok && u != nil {
			for i, existing := range m.likedProfiles {
				if existing.ID == u.ID {
					m.likedProfiles[i] = u
				}
			}
		}
	case cache.CollectionActivities:
		if activities, ok := m.svc.Feed.Cached(); ok {
			m.activity.SetActivities(activities)
		}
	}
}

// cachedProducts joins an id-list key against the product records
func (m *Model) cachedProducts(key cache.Key) []*domain.Product {
	rec, ok := m.svc.Store.Get(key)
	if !ok {
		return nil
	}
	ids, _ := rec.Payload.([]string)
	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if prec, ok := m.svc.Store.Get(cache.ProductKey(id)); ok {
			if p, ok := prec.Payload.(*domain.Product); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func (m *Model) activeGrid() *components.Grid {
	switch m.tabs.Active() {
	case components.TabLikes:
		return &m.liked
	case components.TabHome:
		return &m.home
	default:
		return nil
	}
}

func (m *Model) layout() {
	m.tabs.SetWidth(m.width)
	contentHeight := m.height - 3 // tab bar + status line
	m.home.SetSize(m.width, contentHeight)
	m.liked.SetSize(m.width, contentHeight)
	m.activity.SetSize(m.width, contentHeight)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.status = text
	m.statusErr = isErr
	return ClearStatusCmd(statusClearDelay)
}

// View renders the whole screen
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var body string
	switch m.tabs.Active() {
	case components.TabLikes:
		body = m.liked.View()
	case components.TabActivity:
		body = m.activity.View()
	case components.TabProfile:
		body = m.profileView()
	default:
		body = m.home.View()
	}

	if m.reviewing != nil {
		body = m.reviewModalView()
	}
	if m.showHelp {
		body = m.helpView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabs.View(),
		body,
		m.statusView(),
	)
}

func (m *Model) profileView() string {
	if m.me == nil {
		return styles.DimStyle.Render("Loading profile...")
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.me.Nickname) + "\n")
	b.WriteString(styles.SubtitleStyle.Render(m.me.Region) + "\n")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Rating %.1f  ♥ %d", m.me.Rating, m.me.LikeCount)) + "\n\n")

	if len(m.likedProfiles) > 0 {
		b.WriteString(styles.AccentStyle.Render("Sellers you like") + "\n")
		for i, u := range m.likedProfiles {
			heart := styles.UnlikedHeart
			if u.Liked {
				heart = styles.LikedHeart
			}
			line := fmt.Sprintf("%s %s  %s", heart, u.Nickname, styles.DimStyle.Render(u.Region))
			if i == m.profileCursor {
				b.WriteString(styles.SelectedItemStyle.Render(line) + "\n")
			} else {
				b.WriteString(styles.NormalItemStyle.Render(line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(m.recentTerms) > 0 {
		b.WriteString(styles.AccentStyle.Render("Recent searches") + "\n")
		for _, term := range m.recentTerms {
			b.WriteString(styles.NormalItemStyle.Render(term) + "\n")
		}
	}
	return b.String()
}

func (m *Model) reviewModalView() string {
	a := m.reviewing
	stars := strings.Repeat("★", m.reviewRating) + strings.Repeat("☆", 5-m.reviewRating)

	content := styles.ModalTitleStyle.Render("Review your trade") + "\n" +
		styles.SubtitleStyle.Render(components.Summary(a)) + "\n\n" +
		styles.AccentStyle.Render(stars) + styles.DimStyle.Render("  (1-5)") + "\n\n" +
		m.reviewInput.View() + "\n\n" +
		styles.HelpDescStyle.Render("enter send · esc cancel")

	modal := styles.ModalStyle.Render(content)
	return lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center, modal)
}

func (m *Model) helpView() string {
	rows := [][2]string{
		{"1-4 / tab", "switch tabs"},
		{"j/k h/l", "move"},
		{"enter", "open"},
		{"space", "toggle like"},
		{"/", "filter listings"},
		{"]", "next page"},
		{"a / d", "accept / decline request"},
		{"x", "cancel request"},
		{"m / M", "mark read / all read"},
		{"v", "write review"},
		{"r", "refresh"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys") + "\n")
	for _, r := range rows {
		b.WriteString(styles.HelpKeyStyle.Render(styles.Pad(r[0], 12)))
		b.WriteString(styles.HelpDescStyle.Render(r[1]) + "\n")
	}
	modal := styles.ModalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center, modal)
}

func (m *Model) statusView() string {
	if m.status == "" {
		return styles.DimStyle.Render("? help · q quit")
	}
	if m.statusErr {
		return styles.ErrorStyle.Render(m.status)
	}
	return styles.SuccessStyle.Render(m.status)
}

func likeFailureText(f *domain.Failure) string {
	if f.Retryable() {
		return "Couldn't reach the server, like undone."
	}
	return "Like rejected: " + f.Error()
}
