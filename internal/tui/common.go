package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
)

const emptyEntries = "Nenhum lançamento encontrado."

// --- Messages ---

// statusMsg shows a transient notice in the footer.
type statusMsg struct {
	text    string
	isError bool
}

// clearStatusMsg expires the notice numbered seq.
type clearStatusMsg struct {
	seq int
}

const noticeTTL = 4 * time.Second

func notify(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// scope is the lifetime of one tab mount. Its context is cancelled when the
// tab is left; replies stamped with an older id are dropped.
type scope struct {
	ctx context.Context
	id  int
}

// scoped is implemented by every reply produced under a scope.
type scoped interface {
	scopeID() int
}

// reply is embedded in scoped messages.
type reply struct {
	scope int
}

func (r reply) scopeID() int { return r.scope }

func (s scope) reply() reply { return reply{scope: s.id} }

// background is the scope used before a tab is mounted, mainly in tests.
func background() scope {
	return scope{ctx: context.Background()}
}

// tab is one view of a workspace.
type tab interface {
	title() string
	// mount starts a fresh lifetime under sc and returns the initial load.
	mount(sc scope) (tab, tea.Cmd)
	update(msg tea.Msg) (tab, tea.Cmd)
	view() string
	// capturing reports whether the tab wants every key (text entry, forms).
	capturing() bool
	resize(w, h int) tab
}

// --- Helpers ---

// cell truncates or pads s to exactly w display columns.
func cell(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}

// rightCell right-aligns s in w columns.
func rightCell(s string, w int) string {
	if lipgloss.Width(s) >= w {
		return cell(s, w)
	}
	return strings.Repeat(" ", w-lipgloss.Width(s)) + s
}

// window returns the [start, end) slice of n rows that keeps cursor visible
// in size rows.
func window(n, cursor, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

// entryStatus is the backend Status column, or fallback when it is blank or
// unrecognized.
func entryStatus(e freight.Entry, fallback freight.Status) freight.Status {
	switch freight.Status(strings.ToUpper(strings.TrimSpace(string(e.Status)))) {
	case freight.StatusApproved:
		return freight.StatusApproved
	case freight.StatusRejected:
		return freight.StatusRejected
	case freight.StatusPending:
		return freight.StatusPending
	}
	return fallback
}

func statusBadge(s freight.Status) string {
	switch s {
	case freight.StatusApproved:
		return approvedBadgeStyle.Render("APROVADO")
	case freight.StatusRejected:
		return rejectedBadgeStyle.Render("REPROVADO")
	}
	return pendingBadgeStyle.Render("PENDENTE")
}

// renderMessage is the inline message line under a view.
func renderMessage(text string, isError bool) string {
	if text == "" {
		return ""
	}
	if isError {
		return errorStyle.Render("  " + text)
	}
	return successStyle.Render("  " + text)
}

func kpiCard(title, value, sub string) string {
	return kpiStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		mutedStyle.Render(title),
		kpiValueStyle.Render(value),
		subtitleStyle.Render(sub),
	))
}

// shortPeriod renders "2024-03" as "03/24" for chart labels.
func shortPeriod(p string) string {
	if len(p) == 7 && p[4] == '-' {
		return p[5:] + "/" + p[2:4]
	}
	return p
}
