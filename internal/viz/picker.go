package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Choice is one entry of the picker menu.
type Choice struct {
	Name        string
	Description string
}

// Launcher builds a live session for the chosen entry.
type Launcher func(name string) (Source, LiveConfig, error)

// Picker lists choices and opens a live view on the selected one.
type Picker struct {
	choices []Choice
	cursor  int
	launch  Launcher
	live    *Model
	err     error
	w, h    int
}

func NewPicker(choices []Choice, launch Launcher) Picker {
	return Picker{choices: choices, launch: launch}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			p.live = nil
			return p, nil
		}
		next, cmd := p.live.Update(msg)
		m := next.(Model)
		p.live = &m
		return p, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.w, p.h = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		case "down", "j":
			if p.cursor < len(p.choices)-1 {
				p.cursor++
			}
		case "enter", " ":
			if len(p.choices) == 0 {
				return p, nil
			}
			src, cfg, err := p.launch(p.choices[p.cursor].Name)
			if err != nil {
				p.err = err
				return p, nil
			}
			p.err = nil
			m := NewModel(src, cfg)
			if p.w > 0 {
				m.resize(p.w, p.h)
			}
			p.live = &m
			return p, m.Init()
		}
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}
	var b strings.Builder
	b.WriteString(cyan.Bold(true).Render("CLOTHSIM") + dim.Render("  choose a preset") + "\n\n")
	for i, c := range p.choices {
		line := fmt.Sprintf("%-10s %s", c.Name, dim.Render(c.Description))
		if i == p.cursor {
			b.WriteString(yellow.Render("> ") + white.Render(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n" + yellow.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("↑↓ select  enter run  esc back  q quit"))
	return b.String()
}

// RunPicker starts the preset menu and blocks until it exits.
func RunPicker(choices []Choice, launch Launcher) error {
	_, err := tea.NewProgram(NewPicker(choices, launch), tea.WithAltScreen()).Run()
	return err
}
