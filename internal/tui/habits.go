package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/query"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tracker"
)

type formKind int

const (
	formNew formKind = iota
	formEdit
	formDelete
)

type habitsModel struct {
	svc    *tracker.Service
	width  int
	height int

	habits       []store.Habit
	tasks        []store.Task
	cursor       int
	taskCursor   int
	viewingTasks bool // true = viewing tasks of selected habit

	formActive bool
	form       *huh.Form
	formType   formKind

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formInterval    *string
	formLifetime    *string
	formStart       *string
	formEnd         *string
	formEnabled     *bool
	formConfirm     *bool

	editingID int64
}

func newHabitsModel(svc *tracker.Service) habitsModel {
	var name, desc, interval, lifetime, start, end string
	enabled, confirm := true, false
	return habitsModel{
		svc:             svc,
		formName:        &name,
		formDescription: &desc,
		formInterval:    &interval,
		formLifetime:    &lifetime,
		formStart:       &start,
		formEnd:         &end,
		formEnabled:     &enabled,
		formConfirm:     &confirm,
	}
}

func (p *habitsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type habitsDataMsg struct {
	habits []store.Habit
}

type habitTasksMsg struct {
	tasks []store.Task
}

type habitSavedMsg struct {
	habit   *store.Habit
	created bool
}

type habitDeletedMsg struct {
	id int64
}

func (p habitsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		habits, err := p.svc.ListHabits(context.Background(), store.HabitFilter{})
		if err != nil {
			return errStatus("Load error: %v", err)
		}
		return habitsDataMsg{habits: habits}
	}
}

func (p habitsModel) refreshTasks() tea.Cmd {
	if p.cursor >= len(p.habits) {
		return nil
	}
	hid := p.habits[p.cursor].ID
	return func() tea.Msg {
		tasks, err := p.svc.ListTasks(context.Background(), store.TaskFilter{HabitID: store.Equals(hid)})
		if err != nil {
			return errStatus("Load error: %v", err)
		}
		return habitTasksMsg{tasks: tasks}
	}
}

func (p habitsModel) selected() (store.Habit, bool) {
	if p.cursor >= len(p.habits) {
		return store.Habit{}, false
	}
	return p.habits[p.cursor], true
}

func (p habitsModel) update(msg tea.Msg) (habitsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case habitsDataMsg:
		p.habits = msg.habits
		if p.cursor >= len(p.habits) {
			p.cursor = max(0, len(p.habits)-1)
		}
		if len(p.habits) == 0 {
			p.viewingTasks = false
		}
		return p, nil

	case habitTasksMsg:
		p.tasks = msg.tasks
		if p.taskCursor >= len(p.tasks) {
			p.taskCursor = max(0, len(p.tasks)-1)
		}
		return p, nil
	}

	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case habitSavedMsg:
		verb := "Updated"
		if msg.created {
			verb = "Created"
		}
		status := func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("%s habit %d: %s", verb, msg.habit.ID, msg.habit.Name)}
		}
		return p, tea.Batch(p.refresh(), p.refreshTasks(), status)

	case habitDeletedMsg:
		p.viewingTasks = false
		status := func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Deleted habit %d", msg.id)}
		}
		return p, tea.Batch(p.refresh(), status)

	case taskCompletedMsg:
		return p, p.refreshTasks()

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateHabitList(msg)
	}
	return p, nil
}

func (p habitsModel) updateHabitList(msg tea.KeyMsg) (habitsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.habits)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.habits) > 0 {
			p.viewingTasks = true
			p.taskCursor = 0
			p.tasks = nil
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.New):
		return p.showNewHabitForm()
	case key.Matches(msg, keys.Edit):
		if len(p.habits) > 0 {
			return p.showEditHabitForm()
		}
	case key.Matches(msg, keys.Delete):
		if len(p.habits) > 0 {
			return p.showDeleteForm()
		}
	case key.Matches(msg, keys.Refresh):
		return p, p.refresh()
	}
	return p, nil
}

func (p habitsModel) updateTaskView(msg tea.KeyMsg) (habitsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.Complete):
		if p.taskCursor < len(p.tasks) {
			return p, p.completeTask(p.tasks[p.taskCursor].ID)
		}
	case key.Matches(msg, keys.Edit):
		return p.showEditHabitForm()
	}
	return p, nil
}

func (p habitsModel) completeTask(id int64) tea.Cmd {
	return func() tea.Msg {
		task, err := p.svc.CompleteTask(context.Background(), id)
		if err != nil {
			return errStatus("Complete error: %v", err)
		}
		return taskCompletedMsg{task: task}
	}
}

func validDuration(s string) error {
	_, err := duration.Parse(s)
	return err
}

func validTimestamp(s string) error {
	_, err := query.Timestamp(s)
	return err
}

func (p habitsModel) habitFields() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Name").Value(p.formName).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
		huh.NewInput().Title("Description").Value(p.formDescription),
		huh.NewInput().Title("Interval").Description("ISO-8601, e.g. P1D or PT4H").Value(p.formInterval).Validate(validDuration),
		huh.NewInput().Title("Lifetime").Description("how long each task stays open, e.g. PT2H").Value(p.formLifetime).Validate(validDuration),
		huh.NewInput().Title("Start").Value(p.formStart).Validate(validTimestamp),
		huh.NewInput().Title("End").Value(p.formEnd).Validate(validTimestamp),
		huh.NewConfirm().Title("Active").Value(p.formEnabled),
	)
}

func formTimestamp(t time.Time) string {
	return t.Local().Format(time.RFC3339)
}

func (p habitsModel) showNewHabitForm() (habitsModel, tea.Cmd) {
	now := p.svc.Now()
	*p.formName = ""
	*p.formDescription = ""
	*p.formInterval = "P1D"
	*p.formLifetime = "PT1H"
	*p.formStart = formTimestamp(now)
	*p.formEnd = formTimestamp(now.AddDate(1, 0, 0))
	*p.formEnabled = true
	p.formType = formNew

	p.form = huh.NewForm(p.habitFields()).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p habitsModel) showEditHabitForm() (habitsModel, tea.Cmd) {
	h, ok := p.selected()
	if !ok {
		return p, nil
	}
	*p.formName = h.Name
	*p.formDescription = h.Description
	*p.formInterval = h.Interval.String()
	*p.formLifetime = h.Lifetime.String()
	*p.formStart = formTimestamp(h.Start)
	*p.formEnd = formTimestamp(h.End)
	*p.formEnabled = h.Active
	p.formType = formEdit
	p.editingID = h.ID

	p.form = huh.NewForm(p.habitFields()).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p habitsModel) showDeleteForm() (habitsModel, tea.Cmd) {
	h, ok := p.selected()
	if !ok {
		return p, nil
	}
	*p.formConfirm = false
	p.formType = formDelete
	p.editingID = h.ID

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q and all of its tasks?", h.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p habitsModel) updateForm(msg tea.Msg) (habitsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		switch p.formType {
		case formNew:
			return p, p.createHabit()
		case formEdit:
			return p, p.updateHabit(p.editingID)
		case formDelete:
			if *p.formConfirm {
				return p, p.deleteHabit(p.editingID)
			}
		}
		return p, nil
	}

	return p, cmd
}

// formValues reads the schedule fields back out of the form.
func (p habitsModel) formValues() (interval, lifetime duration.Duration, start, end time.Time, err error) {
	if interval, err = duration.Parse(*p.formInterval); err != nil {
		return
	}
	if lifetime, err = duration.Parse(*p.formLifetime); err != nil {
		return
	}
	if start, err = query.Timestamp(*p.formStart); err != nil {
		return
	}
	end, err = query.Timestamp(*p.formEnd)
	return
}

func (p habitsModel) createHabit() tea.Cmd {
	interval, lifetime, start, end, err := p.formValues()
	if err != nil {
		return func() tea.Msg { return errStatus("Invalid habit: %v", err) }
	}
	active := *p.formEnabled
	in := tracker.CreateHabitInput{
		Name:        *p.formName,
		Description: *p.formDescription,
		Interval:    interval,
		Lifetime:    lifetime,
		Active:      &active,
		Start:       start,
		End:         end,
	}
	return func() tea.Msg {
		h, err := p.svc.CreateHabit(context.Background(), in)
		if err != nil {
			return errStatus("Create error: %v", err)
		}
		return habitSavedMsg{habit: h, created: true}
	}
}

func (p habitsModel) updateHabit(id int64) tea.Cmd {
	interval, lifetime, start, end, err := p.formValues()
	if err != nil {
		return func() tea.Msg { return errStatus("Invalid habit: %v", err) }
	}
	name, desc, active := *p.formName, *p.formDescription, *p.formEnabled
	in := tracker.UpdateHabitInput{
		Name:        &name,
		Description: &desc,
		Interval:    &interval,
		Lifetime:    &lifetime,
		Active:      &active,
		Start:       &start,
		End:         &end,
	}
	return func() tea.Msg {
		h, err := p.svc.UpdateHabit(context.Background(), id, in)
		if err != nil {
			return errStatus("Update error: %v", err)
		}
		return habitSavedMsg{habit: h}
	}
}

func (p habitsModel) deleteHabit(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := p.svc.DeleteHabit(context.Background(), id); err != nil {
			return errStatus("Delete error: %v", err)
		}
		return habitDeletedMsg{id: id}
	}
}

func (p habitsModel) view() string {
	if p.formActive && p.form != nil {
		var title string
		switch p.formType {
		case formNew:
			title = "New Habit"
		case formEdit:
			title = "Update Habit"
		case formDelete:
			title = "Delete Habit"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderHabitList()
}

func (p habitsModel) renderHabitList() string {
	w := p.width - 4
	title := titleStyle.Render("Habits")

	if len(p.habits) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No habits yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-2s %-24s %-10s %-10s %-12s %s", "", "Name", "Every", "For", "Until", "")))

	for i, h := range p.habits {
		dot := lipgloss.NewStyle().Foreground(habitColor(h.ID)).Render("●")
		cursor, style := cursorPrefix(i == p.cursor)
		state := ""
		if !h.Active {
			state = mutedStyle.Render("paused")
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %-10s %-10s %-12s ", cursor, dot, h.Name, h.Interval, h.Lifetime, formatTime(h.End)))
		rows = append(rows, row+state)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  u: update  d: delete  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// taskWindow returns the slice bounds of the tasks that fit on screen,
// keeping the cursor in view.
func (p habitsModel) taskWindow() (int, int) {
	visible := max(5, p.height-10)
	if len(p.tasks) <= visible {
		return 0, len(p.tasks)
	}
	from := max(0, p.taskCursor-visible/2)
	to := min(len(p.tasks), from+visible)
	return to - visible, to
}

func (p habitsModel) renderTaskView() string {
	w := p.width - 4
	h, ok := p.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("No habit selected."))
	}
	dot := lipgloss.NewStyle().Foreground(habitColor(h.ID)).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s: every %s for %s", dot, h.Name, h.Interval, h.Lifetime))

	if len(p.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks scheduled."),
		)
		return panelStyle.Width(w).Render(content)
	}

	now := p.svc.Now()
	done := 0
	for _, t := range p.tasks {
		if t.Completed {
			done++
		}
	}

	var rows []string
	rows = append(rows, title, subtitleStyle.Render(fmt.Sprintf("%d of %d tasks completed", done, len(p.tasks))), "")

	from, to := p.taskWindow()
	for i := from; i < to; i++ {
		t := p.tasks[i]
		cursor, style := cursorPrefix(i == p.taskCursor)
		rows = append(rows, style.Render(fmt.Sprintf("%s#%-5d %-14s %-14s ", cursor, t.HabitOrder, formatTime(t.Start), formatTime(t.End)))+taskMark(t, now))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  c: complete  u: update habit  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
