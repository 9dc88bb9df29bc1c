package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fretes/internal/freight"
	"github.com/sadopc/fretes/internal/rpc"
)

type submitDoneMsg struct {
	reply
	message string
	err     error
}

// Field positions on the submission form.
const (
	fieldDate = iota
	fieldFleet
	fieldClient
	fieldType
	fieldOtherType
	fieldValue
	fieldContainer1
	fieldContainer2
	fieldContainer3
	fieldContainer4
	fieldNote
	fieldCount
)

const noFocus = -1

type option struct {
	label string
	value string
}

// formField is either a text input or a choice cycled with left/right.
type formField struct {
	id      string
	label   string
	input   textinput.Model
	choice  bool
	options []option
	index   int
}

func (f formField) value() string {
	if !f.choice {
		return f.input.Value()
	}
	if f.index < 0 || f.index >= len(f.options) {
		return ""
	}
	return f.options[f.index].value
}

func (f *formField) selectValue(v string) {
	f.index = -1
	for i, o := range f.options {
		if o.value == v {
			f.index = i
			return
		}
	}
}

func (f *formField) cycle(delta int) {
	n := len(f.options)
	if n == 0 {
		return
	}
	if f.index < 0 {
		if delta > 0 {
			f.index = 0
		} else {
			f.index = n - 1
		}
		return
	}
	f.index = (f.index + delta + n) % n
}

// submitModel is the driver's Lançar tab.
type submitModel struct {
	state  *appState
	sc     scope
	width  int
	height int

	fields [fieldCount]formField
	focus  int

	busy    bool
	message string
	isError bool
}

func newSubmitModel(st *appState) *submitModel {
	s := &submitModel{state: st, sc: background(), focus: noFocus}
	s.buildFields()
	s.reset(freight.NewDraft(st.now(), st.user.DefaultFleet))
	return s
}

func textField(id, label, placeholder string, limit int) formField {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	return formField{id: id, label: label, input: in}
}

func (s *submitModel) buildFields() {
	lk := s.state.lookups

	var fleets []option
	seen := map[string]bool{}
	for _, f := range lk.Fleets {
		fleets = append(fleets, option{label: f.Label(), value: f.Number})
		seen[f.Number] = true
	}
	if df := s.state.user.DefaultFleet; df != "" && !seen[df] {
		fleets = append([]option{{label: df, value: df}}, fleets...)
	}

	var clients []option
	for _, c := range lk.Clients {
		clients = append(clients, option{label: c.Name, value: c.Name})
	}

	var types []option
	for _, t := range freight.EntryTypes {
		types = append(types, option{label: t, value: t})
	}
	types = append(types, option{label: freight.OtherType, value: freight.OtherType})

	s.fields[fieldDate] = textField("data", "Data", "AAAA-MM-DD", 10)
	s.fields[fieldFleet] = formField{id: "frota", label: "Frota", choice: true, options: fleets, index: -1}
	s.fields[fieldClient] = formField{id: "cliente", label: "Cliente", choice: true, options: clients, index: -1}
	s.fields[fieldType] = formField{id: "tipo", label: "Tipo", choice: true, options: types, index: -1}
	s.fields[fieldOtherType] = textField("tipo", "Outro tipo", "descreva o tipo", 40)
	s.fields[fieldValue] = textField("valor", "Valor (R$)", "0,00", 16)
	for i := 0; i < 4; i++ {
		s.fields[fieldContainer1+i] = textField("container", "Container "+string(rune('1'+i)), "ABCU1234567", freight.ContainerLength)
	}
	s.fields[fieldNote] = textField("obs", "Obs.", "opcional", freight.NoteLimit)
}

// reset loads d into the form.
func (s *submitModel) reset(d freight.Draft) {
	s.fields[fieldDate].input.SetValue(d.Date)
	s.fields[fieldFleet].selectValue(d.Fleet)
	s.fields[fieldClient].selectValue(d.Client)
	s.fields[fieldType].selectValue(d.Type)
	s.fields[fieldOtherType].input.SetValue(d.OtherType)
	s.fields[fieldValue].input.SetValue(d.Value)
	for i, c := range d.Containers {
		s.fields[fieldContainer1+i].input.SetValue(c)
	}
	s.fields[fieldNote].input.SetValue(d.Note)
}

func (s *submitModel) draft() freight.Draft {
	d := freight.Draft{
		Date:      s.fields[fieldDate].value(),
		Fleet:     s.fields[fieldFleet].value(),
		Client:    s.fields[fieldClient].value(),
		Type:      s.fields[fieldType].value(),
		OtherType: s.fields[fieldOtherType].value(),
		Value:     s.fields[fieldValue].value(),
		Note:      s.fields[fieldNote].value(),
	}
	for i := range d.Containers {
		d.Containers[i] = s.fields[fieldContainer1+i].value()
	}
	return d
}

func (s *submitModel) title() string { return "Lançar" }

func (s *submitModel) mount(sc scope) (tab, tea.Cmd) {
	s.sc = sc
	s.busy = false
	// Lookups may have changed since the form was built.
	d := s.draft()
	s.buildFields()
	s.reset(d)
	s.focus = noFocus
	s.resize(s.width, s.height)
	return s, nil
}

func (s *submitModel) resize(w, h int) tab {
	s.width = w
	s.height = h
	for i := range s.fields {
		s.fields[i].input.Width = max(10, min(w-30, 60))
	}
	return s
}

func (s *submitModel) capturing() bool { return s.focus != noFocus }

func (s *submitModel) shown(i int) bool {
	if i == fieldOtherType {
		return s.fields[fieldType].value() == freight.OtherType
	}
	return true
}

// setFocus moves focus to field i, reformatting the value field on blur.
func (s *submitModel) setFocus(i int) tea.Cmd {
	if s.focus != noFocus {
		s.fields[s.focus].input.Blur()
		if s.focus == fieldValue {
			in := &s.fields[fieldValue].input
			in.SetValue(freight.FormatValueField(in.Value()))
		}
	}
	s.focus = i
	if i == noFocus || s.fields[i].choice {
		return nil
	}
	return s.fields[i].input.Focus()
}

func (s *submitModel) step(delta int) tea.Cmd {
	i := s.focus
	for {
		i = (i + delta + fieldCount) % fieldCount
		if s.shown(i) {
			return s.setFocus(i)
		}
	}
}

func (s *submitModel) update(msg tea.Msg) (tab, tea.Cmd) {
	switch msg := msg.(type) {
	case submitDoneMsg:
		s.busy = false
		if msg.err != nil {
			s.message, s.isError = rpc.Message(msg.err), true
			return s, nil
		}
		s.message, s.isError = msg.message, false
		s.reset(freight.NewDraft(s.state.now(), s.state.user.DefaultFleet))
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Submit) {
			return s.submit()
		}
		if s.focus == noFocus {
			if key.Matches(msg, keys.Edit) {
				return s, s.setFocus(fieldDate)
			}
			return s, nil
		}
		return s.updateFocused(msg)
	}

	if s.focus != noFocus && !s.fields[s.focus].choice {
		var cmd tea.Cmd
		s.fields[s.focus].input, cmd = s.fields[s.focus].input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *submitModel) updateFocused(msg tea.KeyMsg) (tab, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, s.setFocus(noFocus)
	case "tab", "down", "enter":
		return s, s.step(1)
	case "shift+tab", "up":
		return s, s.step(-1)
	}

	f := &s.fields[s.focus]
	if f.choice {
		switch msg.String() {
		case "left", "h":
			f.cycle(-1)
		case "right", "l", " ":
			f.cycle(1)
		}
		return s, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if s.focus >= fieldContainer1 && s.focus <= fieldContainer4 {
		if clean := freight.SanitizeContainer(f.input.Value()); clean != f.input.Value() {
			f.input.SetValue(clean)
		}
	}
	return s, cmd
}

// fieldIndex maps a validation field id to its form position.
func (s *submitModel) fieldIndex(id string) int {
	if id == "tipo" && s.fields[fieldType].value() == freight.OtherType {
		return fieldOtherType
	}
	for i, f := range s.fields {
		if f.id == id {
			return i
		}
	}
	return noFocus
}

func (s *submitModel) submit() (tab, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	if s.focus == fieldValue {
		s.setFocus(fieldValue)
	}
	sub, err := s.draft().Validate()
	if err != nil {
		s.message, s.isError = rpc.Message(err), true
		var verr *freight.ValidationError
		if errors.As(err, &verr) {
			return s, s.setFocus(s.fieldIndex(verr.Field))
		}
		return s, nil
	}

	s.setFocus(noFocus)
	s.busy = true
	s.message, s.isError = "Enviando...", false
	api, sc := s.state.api, s.sc
	return s, func() tea.Msg {
		text, err := api.SaveDriverEntry(sc.ctx, sub)
		return submitDoneMsg{reply: sc.reply(), message: text, err: err}
	}
}

func (s *submitModel) view() string {
	w := s.width - 4

	var rows []string
	for i, f := range s.fields {
		if !s.shown(i) {
			continue
		}
		focused := i == s.focus
		label := cell(f.label, 14)
		if focused {
			label = selectedItemStyle.Render("> " + label)
		} else {
			label = mutedStyle.Render("  " + label)
		}
		rows = append(rows, label+" "+s.renderField(f, focused))
	}

	hint := "  i/enter: editar  ctrl+s: enviar"
	if s.focus != noFocus {
		hint = "  tab/↑↓: campo  ←/→: opção  esc: sair do formulário  ctrl+s: enviar"
	}

	parts := []string{
		titleStyle.Render("Novo lançamento"),
		subtitleStyle.Render(s.state.user.Name),
		"",
		strings.Join(rows, "\n"),
		"",
		mutedStyle.Render(hint),
	}
	if m := renderMessage(s.message, s.isError); m != "" {
		parts = append(parts, m)
	}

	style := panelStyle
	if s.focus != noFocus {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (s *submitModel) renderField(f formField, focused bool) string {
	if !f.choice {
		if f.id == "obs" && focused {
			counter := fmt.Sprintf("  %d/%d", len([]rune(f.input.Value())), freight.NoteLimit)
			return f.input.View() + mutedStyle.Render(counter)
		}
		return f.input.View()
	}
	text := mutedStyle.Render("Selecione...")
	if f.index >= 0 && f.index < len(f.options) {
		text = normalItemStyle.Render(f.options[f.index].label)
	}
	if len(f.options) == 0 {
		text = mutedStyle.Render("(sem opções)")
	}
	if focused {
		return highlightStyle.Render("‹ ") + text + highlightStyle.Render(" ›")
	}
	return text
}
