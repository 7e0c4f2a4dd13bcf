// Package tui renders the project event stream as a live dependency list.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/utica/internal/core/domain"
)

// RowStatus represents the display state of one dependency.
type RowStatus string

const (
	// StatusWorking indicates the dependency has activity in flight.
	StatusWorking RowStatus = "Working"
	// StatusCached indicates the dependency's cached artifact was reused.
	StatusCached RowStatus = "Cached"
	// StatusSkipped indicates the dependency was skipped with a reason.
	StatusSkipped RowStatus = "Skipped"
	// StatusDone indicates all work for the dependency finished.
	StatusDone RowStatus = "Done"
)

// Row is one dependency line in the list.
type Row struct {
	Name   string
	Status RowStatus
	Detail string
}

// EventMsg carries one project event into the TUI loop.
type EventMsg struct {
	Event domain.ProjectEvent
}

// DoneMsg signals the end of the run.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model for the event renderer.
type Model struct {
	Rows    []Row
	indexes map[string]int
	Err     error
	done    bool
}

// NewModel creates an empty Model.
func NewModel() Model {
	return Model{indexes: make(map[string]int)}
}

// Init implements tea.Model.
//
//nolint:gocritic // hugeParam ignored
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
//
//nolint:gocritic // hugeParam ignored
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case EventMsg:
		m.apply(msg.Event)

	case DoneMsg:
		m.Err = msg.Err
		m.done = true
		for i := range m.Rows {
			if m.Rows[i].Status == StatusWorking {
				m.Rows[i].Status = StatusDone
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(event domain.ProjectEvent) {
	name := event.Dependency.Name()
	idx, ok := m.indexes[name]
	if !ok {
		idx = len(m.Rows)
		m.indexes[name] = idx
		m.Rows = append(m.Rows, Row{Name: name})
	}

	row := &m.Rows[idx]
	switch event.Kind {
	case domain.EventSkippedBuildingCached:
		row.Status = StatusCached
		row.Detail = "cached"
	case domain.EventSkippedBuilding, domain.EventSkippedDownloadingBinaries:
		row.Status = StatusSkipped
		row.Detail = event.Reason
	case domain.EventSkippedInstallingBinaries:
		row.Status = StatusWorking
		row.Detail = "building from source"
	default:
		row.Status = StatusWorking
		row.Detail = event.String()
	}
}
