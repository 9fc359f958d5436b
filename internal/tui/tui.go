// Package tui provides a Bubble Tea terminal form for expstart.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/expstart/internal/config"
	ioutils "github.com/handiism/expstart/internal/io"
	"github.com/handiism/expstart/internal/model"
	"github.com/handiism/expstart/internal/reveal"
	"github.com/handiism/expstart/internal/scaffold"
	"github.com/handiism/expstart/internal/templates"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs bounds the events shown after a build.
const maxLogs = 12

// State represents the current UI state.
type State int

const (
	StateForm State = iota
	StateBuilding
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   scaffold.ProgressLevel
}

// formValues is what the form fields write into. It lives on the heap so
// the huh accessors stay valid while the Model is copied around.
type formValues struct {
	Parent   string
	Date     string
	Name     string
	Folders  []string
	Formats  []string
	Custom   [3]string
	CustomOn []int
	Files    []model.Artifact
}

// newFormValues seeds the form from settings.
func newFormValues(s *config.Settings) *formValues {
	v := &formValues{
		Parent:  s.ParentFolder,
		Date:    model.Today().Format(model.DateLayout),
		Folders: s.Folders.Folders(),
		Formats: s.ImageFormats.Formats(),
		Files:   s.Files.Artifacts(),
	}

	// Folders() also lists enabled custom folders; keep only the standard ones.
	std := v.Folders[:0]
	for _, f := range v.Folders {
		if isStandardFolder(f) {
			std = append(std, f)
		}
	}
	v.Folders = std

	for i, c := range s.Folders.Custom {
		v.Custom[i] = c.Name
		if c.Enabled {
			v.CustomOn = append(v.CustomOn, i)
		}
	}
	return v
}

func isStandardFolder(name string) bool {
	switch name {
	case model.FolderData, model.FolderImages, model.FolderNotebooks, model.FolderPlots, model.FolderVideos:
		return true
	}
	return false
}

// experiment returns the experiment described by the current values.
func (v *formValues) experiment(sanitize bool) (model.Experiment, error) {
	date := model.Today()
	if strings.TrimSpace(v.Date) != "" {
		d, err := model.ParseDate(strings.TrimSpace(v.Date))
		if err != nil {
			return model.Experiment{}, err
		}
		date = d
	}
	name := v.Name
	if sanitize {
		name = ioutils.SanitizeFileName(name)
	}
	return model.NewExperiment(date, name), nil
}

// request converts the form into a build request.
func (v *formValues) request(s *config.Settings) (model.Request, error) {
	exp, err := v.experiment(s.SanitizeNames)
	if err != nil {
		return model.Request{}, err
	}

	req := model.Request{
		Parent:     strings.TrimSpace(v.Parent),
		Experiment: exp,
	}
	if req.Parent == "" {
		req.Parent = s.ParentFolder
	}

	for _, f := range v.Folders {
		if err := req.Folders.Set(f); err != nil {
			return model.Request{}, err
		}
	}
	for i, name := range v.Custom {
		req.Folders.Custom[i] = model.CustomFolder{Name: strings.TrimSpace(name)}
	}
	for _, i := range v.CustomOn {
		req.Folders.Custom[i].Enabled = true
	}
	for _, f := range v.Formats {
		if err := req.Images.Set(f); err != nil {
			return model.Request{}, err
		}
	}
	for _, a := range v.Files {
		req.Files.Set(a)
	}
	return req, nil
}

// preview renders the canonical id for the header.
func (v *formValues) preview(sanitize bool) string {
	exp, err := v.experiment(sanitize)
	if err != nil {
		return "invalid date"
	}
	return exp.ID()
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := model.ParseDate(strings.TrimSpace(s))
	return err
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func newForm(v *formValues) *huh.Form {
	folderOpts := []huh.Option[string]{
		huh.NewOption("data", model.FolderData),
		huh.NewOption("images", model.FolderImages),
		huh.NewOption("notebooks", model.FolderNotebooks),
		huh.NewOption("plots", model.FolderPlots),
		huh.NewOption("videos", model.FolderVideos),
	}
	formatOpts := huh.NewOptions(model.FormatJPG, model.FormatNEF, model.FormatPNG, model.FormatSVG)

	var fileOpts []huh.Option[model.Artifact]
	for _, spec := range model.Specs() {
		fileOpts = append(fileOpts, huh.NewOption(spec.Label, spec.Artifact))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Parent folder").
				Value(&v.Parent),
			huh.NewInput().
				Title("Date").
				Placeholder(model.DateLayout).
				Value(&v.Date).
				Validate(validateDate),
			huh.NewInput().
				Title("Experiment name").
				Description("Spaces become underscores").
				Value(&v.Name).
				Validate(validateName),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Folders").
				Value(&v.Folders).
				Options(folderOpts...),
			huh.NewMultiSelect[string]().
				Title("Image formats").
				Description("Created under images").
				Value(&v.Formats).
				Options(formatOpts...),
		),
		huh.NewGroup(
			huh.NewInput().Title("Custom folder 1").Value(&v.Custom[0]),
			huh.NewInput().Title("Custom folder 2").Value(&v.Custom[1]),
			huh.NewInput().Title("Custom folder 3").Value(&v.Custom[2]),
			huh.NewMultiSelect[int]().
				Title("Create custom folders").
				Value(&v.CustomOn).
				Options(
					huh.NewOption("custom 1", 0),
					huh.NewOption("custom 2", 1),
					huh.NewOption("custom 3", 2),
				),
		),
		huh.NewGroup(
			huh.NewMultiSelect[model.Artifact]().
				Title("Files").
				Value(&v.Files).
				Options(fileOpts...),
		),
	).WithTheme(huh.ThemeBase()).WithShowHelp(true)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	form     *huh.Form
	values   *formValues
	spinner  spinner.Model
	settings *config.Settings
	builder  *scaffold.Builder
	logs     []LogEntry
	report   *scaffold.Report
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model seeded from settings.
func NewModel(settings *config.Settings, opts ...scaffold.Option) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	values := newFormValues(settings)
	return Model{
		state:    StateForm,
		form:     newForm(values),
		values:   values,
		spinner:  sp,
		settings: settings,
		builder:  newBuilder(settings, opts...),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func newBuilder(s *config.Settings, opts ...scaffold.Option) *scaffold.Builder {
	set, err := templates.Locate(templates.Candidates(s.TemplatesDir)...)
	if err != nil {
		set = templates.Set{Dir: templates.Candidates(s.TemplatesDir)[0]}
	}
	if s.Reveal {
		opts = append(opts, scaffold.WithReveal(reveal.Open))
	}
	// Events are returned with the build result rather than streamed.
	return scaffold.NewBuilder(set, nil, opts...)
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), m.spinner.Tick)
}

// Message types
type (
	// BuildDoneMsg is sent when a build finishes.
	BuildDoneMsg struct {
		Report *scaffold.Report
		Logs   []LogEntry
		Err    error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateForm {
				m.cancel()
				return m, tea.Quit
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				nm := m.reset()
				return nm, nm.form.Init()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case BuildDoneMsg:
		m.report = msg.Report
		m.logs = msg.Logs
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}
		switch {
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case msg.Report != nil && len(msg.Report.Failed()) > 0:
			m.state = StateError
			m.err = fmt.Errorf("%d item(s) failed", len(msg.Report.Failed()))
		default:
			m.state = StateComplete
		}
		return m, nil
	}

	if m.state == StateForm {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		cmds = append(cmds, cmd)

		switch m.form.State {
		case huh.StateCompleted:
			req, err := m.values.request(m.settings)
			if err != nil {
				m.state = StateError
				m.err = err
				return m, nil
			}
			m.state = StateBuilding
			cmds = append(cmds, m.build(req), m.spinner.Tick)
		case huh.StateAborted:
			m.cancel()
			return m, tea.Quit
		}
	}

	return m, tea.Batch(cmds...)
}

// reset returns the model to a fresh form that keeps the previous answers.
func (m Model) reset() Model {
	m.state = StateForm
	m.logs = nil
	m.report = nil
	m.err = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.form = newForm(m.values)
	return m
}

// build runs the builder in the background.
func (m Model) build(req model.Request) tea.Cmd {
	ctx := m.ctx
	builder := m.builder
	return func() tea.Msg {
		var logs []LogEntry
		b := builder.WithProgress(func(e scaffold.Event) {
			logs = append(logs, LogEntry{Message: e.Message, Level: e.Level})
		})
		report, err := b.Build(ctx, req)
		return BuildDoneMsg{Report: report, Logs: logs, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Experiment Folder Builder"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Create a dated experiment folder from templates"))
	b.WriteString("\n\n")

	switch m.state {
	case StateForm:
		b.WriteString(m.viewForm())
	case StateBuilding:
		b.WriteString(m.viewBuilding())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Experiment: "))
	b.WriteString(idStyle.Render(m.values.preview(m.settings.SanitizeNames)))
	b.WriteString("\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewBuilding() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Creating " + m.values.preview(m.settings.SanitizeNames) + "..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	if m.report != nil {
		s := m.report.Summary()
		box := boxStyle.Render(fmt.Sprintf(
			"Experiment ready\n\n"+
				"%s\n\n"+
				"Created: %d\n"+
				"Existed: %d\n"+
				"Written: %s",
			m.report.Root,
			s.Created,
			s.Existed,
			humanize.Bytes(uint64(s.Bytes)),
		))
		b.WriteString(box)
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n\n")
	}
	if m.report != nil {
		for _, it := range m.report.Failed() {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s (%s)", it.Path, scaffold.KindOf(it.Err))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case scaffold.LevelError:
			style = errorStyle
			prefix = "✗"
		case scaffold.LevelWarning:
			style = warningStyle
			prefix = "!"
		case scaffold.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case scaffold.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateForm:
		return "enter: next • shift+tab: back • esc: quit"
	case StateBuilding:
		return "building…"
	case StateComplete, StateError:
		return "r: new experiment • q: quit"
	}
	return ""
}

// Run starts the TUI application. A nil locks gives the form its own Locker.
func Run(settings *config.Settings, locks *scaffold.Locker) error {
	var opts []scaffold.Option
	if locks != nil {
		opts = append(opts, scaffold.WithLocker(locks))
	}
	p := tea.NewProgram(NewModel(settings, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
