package tui

import (
	"github.com/sadopc/fretes/internal/export"
	"github.com/sadopc/fretes/internal/freight"
)

type workspaceKind int

const (
	managerWorkspace workspaceKind = iota
	driverWorkspace
)

// workspace is the role-specific tab set shown after login.
type workspace struct {
	kind workspaceKind
	tabs []tab
}

// newWorkspace is the only place a role selects its views.
func newWorkspace(st *appState) workspace {
	switch st.user.Role() {
	case freight.RoleManager:
		return workspace{
			kind: managerWorkspace,
			tabs: []tab{
				newPendingModel(st),
				newHistoryModel(st, export.KindApproved),
				newHistoryModel(st, export.KindRejected),
				newReportModel(st),
				newRegistryModel(st),
			},
		}
	default:
		return workspace{
			kind: driverWorkspace,
			tabs: []tab{
				newSubmitModel(st),
				newMyEntriesModel(st),
			},
		}
	}
}

func (w workspace) titles() []string {
	out := make([]string, len(w.tabs))
	for i, t := range w.tabs {
		out[i] = t.title()
	}
	return out
}
