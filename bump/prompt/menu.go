package prompt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginBottom(1)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	numberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Menu is an interactive Chooser drawn on a terminal.
type Menu struct {
	// In and Out default to the process stdin and stdout
	// when nil.
	In  io.Reader
	Out io.Writer
}

var _ Chooser = Menu{}

// Choose shows items and blocks until the user selects one or
// quits.
func (m Menu) Choose(title string, items []string) (int, error) {
	const errCtx = "showing menu"

	if len(items) == 0 {
		return Quit, ErrNoItems
	}

	var opts []tea.ProgramOption
	if m.In != nil {
		opts = append(opts, tea.WithInput(m.In))
	}

	if m.Out != nil {
		opts = append(opts, tea.WithOutput(m.Out))
	}

	final, err := tea.NewProgram(newModel(title, items), opts...).Run()
	if err != nil {
		return Quit, fmt.Errorf("%s: %w", errCtx, err)
	}

	res, ok := final.(model)
	if !ok || !res.chosen {
		return Quit, ErrQuit
	}

	return res.cursor, nil
}

type model struct {
	title  string
	items  []string
	cursor int
	typed  string
	chosen bool
	quit   bool
	help   help.Model
}

func newModel(title string, items []string) model {
	return model{
		title: title,
		items: items,
		help:  help.New(),
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Quit):
		m.quit = true

		return m, tea.Quit
	case key.Matches(km, keys.Up):
		m.typed = ""

		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		m.typed = ""

		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Select):
		m.chosen = true

		return m, tea.Quit
	default:
		if d := km.String(); len(d) == 1 && d[0] >= '0' && d[0] <= '9' {
			return m.typeDigit(d)
		}

		m.typed = ""
	}

	return m, nil
}

// typeDigit extends the typed item number by d and moves the
// cursor to it. The item is picked as soon as no longer valid
// number can start with the digits typed so far; otherwise
// enter confirms.
func (m model) typeDigit(d string) (tea.Model, tea.Cmd) {
	typed := m.typed + d

	n, _ := strconv.Atoi(typed)
	if n < 1 || n > len(m.items) {
		typed = d
		n, _ = strconv.Atoi(typed)
	}

	if n < 1 || n > len(m.items) {
		m.typed = ""

		return m, nil
	}

	m.typed = typed
	m.cursor = n - 1

	if n*10 > len(m.items) {
		m.chosen = true

		return m, tea.Quit
	}

	return m, nil
}

func (m model) View() string {
	if m.chosen || m.quit {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	for i, item := range m.items {
		line := fmt.Sprintf(
			"%s %s",
			numberStyle.Render(fmt.Sprintf("%3d.", i+1)),
			item,
		)

		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")

	return b.String()
}
