package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rstms/sdfs"
	"github.com/rstms/sdfs/browse"
)

var (
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	fileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	sizeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	popupStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

func newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <image>",
		Short: "Interactively browse the media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(args[0])
		},
	}
}

func runBrowse(filename string) error {
	if !IsFile(filename) {
		return Fatalf("not a file: %s", filename)
	}
	device, err := sdfs.NewFileDisk(filename)
	if err != nil {
		return Fatal(err)
	}

	session, err := browse.NewSession(device)
	if err != nil {
		// the one user-visible error: mount failed at session start
		return Fatal(err)
	}
	defer session.Close()

	model := browseModel{session: session, pageSize: 12}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return Fatal(err)
	}
	return nil
}

type browseModel struct {
	session  *browse.Session
	pageSize int
	cursor   int // row within the visible page
	popup    *browse.FileInfo
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.pageSize = msg.Height - 3 // header + footer + hints
		if m.pageSize < 1 {
			m.pageSize = 1
		}
		return m, nil

	case tea.KeyMsg:
		if m.popup != nil {
			m.popup = nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc", "backspace", "left", "h":
			result := m.session.Apply(browse.Input{Kind: browse.InputBack})
			m.cursor = 0
			if result.Exit {
				return m, tea.Quit
			}

		case "pgup":
			m.session.Apply(browse.Input{Kind: browse.InputPageUp, PageSize: m.pageSize})
			m.cursor = 0

		case "pgdown":
			m.session.Apply(browse.Input{Kind: browse.InputPageDown, PageSize: m.pageSize})
			m.cursor = 0

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.session.Navigator().Render(m.pageSize).HasMoreAbove {
				m.session.Apply(browse.Input{Kind: browse.InputPageUp, PageSize: m.pageSize})
				m.cursor = m.pageSize - 1
			}

		case "down", "j":
			model := m.session.Navigator().Render(m.pageSize)
			if m.cursor < len(model.Entries)-1 {
				m.cursor++
			} else if model.HasMoreBelow {
				m.session.Apply(browse.Input{Kind: browse.InputPageDown, PageSize: m.pageSize})
				m.cursor = 0
			}

		case "enter", "right", "l":
			model := m.session.Navigator().Render(m.pageSize)
			if m.cursor < len(model.Entries) {
				result := m.session.Apply(browse.Input{
					Kind:  browse.InputSelect,
					Index: model.Scroll + m.cursor,
				})
				if result.File != nil {
					m.popup = result.File
				} else {
					m.cursor = 0
				}
			}
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	model := m.session.Navigator().Render(m.pageSize)

	if m.popup != nil {
		body := pathStyle.Render(m.popup.Name) + "\n" +
			sizeStyle.Render("size: "+browse.FormatSize(m.popup.Size)) + "\n\n" +
			footerStyle.Render("press any key")
		return popupStyle.Render(body)
	}

	s := pathStyle.Render(model.Path) + "\n"

	for i, entry := range model.Entries {
		marker := "  "
		if entry.IsDir {
			marker = "> "
		}
		size := browse.FormatSize(entry.Size)
		if entry.IsDir {
			size = " DIR"
		}
		line := marker + entry.Name
		style := fileStyle
		if entry.IsDir {
			style = dirStyle
		}
		if i == m.cursor {
			style = selectedStyle
		}
		s += style.Render(line) + " " + sizeStyle.Render(size) + "\n"
	}

	summary := ""
	if model.HasMoreAbove {
		summary += "^ "
	}
	summary += footerSummary(model)
	if model.HasMoreBelow {
		summary += " v"
	}
	s += footerStyle.Render(summary) + "\n"
	s += footerStyle.Render("enter: open  backspace: up  pgup/pgdn: page  q: quit")
	return s
}

func footerSummary(model browse.RenderModel) string {
	plural := func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	}
	return fmt.Sprintf("%d file%s, %d dir%s",
		model.Files, plural(model.Files), model.Dirs, plural(model.Dirs))
}
