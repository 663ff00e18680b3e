// Package tui is the terminal live-caption viewer.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"witaj.town/translate"
)

const maxVisibleCaptions = 8

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	originalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	translationStyle = lipgloss.NewStyle().Bold(true)
	shakyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type captionMsg translate.Update

type disconnectMsg struct{ err error }

type model struct {
	recordID string
	captions []translate.Update
	err      error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case captionMsg:
		m.captions = append(m.captions, translate.Update(msg))
		if len(m.captions) > maxVisibleCaptions {
			m.captions = m.captions[len(m.captions)-maxVisibleCaptions:]
		}
	case disconnectMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("live captions · " + m.recordID))
	b.WriteString("\n\n")

	if len(m.captions) == 0 {
		b.WriteString(originalStyle.Render("waiting for captions..."))
		b.WriteString("\n")
	}
	for _, c := range m.captions {
		b.WriteString(originalStyle.Render(c.Original))
		b.WriteString("\n")
		line := translationStyle
		if shaky(c) {
			line = shakyStyle
		}
		b.WriteString(line.Render(c.Translation))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("disconnected: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(originalStyle.Render("press q to quit"))
	return b.String()
}

// shaky marks translations whose source tokens failed the quality
// verdict.
func shaky(u translate.Update) bool {
	for _, tok := range u.TranslationTokens {
		if tok.Spell != nil && !*tok.Spell {
			return true
		}
	}
	return false
}

var WatchCmd = &cobra.Command{
	Use:   "watch <recordID>",
	Short: "Watch a record's live captions in the terminal",
	Long:  `This command subscribes to a recording session and renders its caption pairs as they arrive.`,
	Args:  cobra.ExactArgs(1),
	Run:   runWatch,
}

func init() {
	WatchCmd.Flags().String("server", "ws://localhost:4000", "Websocket base URL of the caption relay")
}

func runWatch(cmd *cobra.Command, args []string) {
	server, _ := cmd.Flags().GetString("server")
	recordID := args[0]

	conn, _, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("%s/ws/listen?id=%s", strings.TrimSuffix(server, "/"), recordID), nil)
	if err != nil {
		log.Fatal("Failed to connect to caption relay", "error", err)
	}
	defer conn.Close()

	p := tea.NewProgram(model{recordID: recordID})

	go func() {
		for {
			var update translate.Update
			if err := conn.ReadJSON(&update); err != nil {
				p.Send(disconnectMsg{err: err})
				return
			}
			p.Send(captionMsg(update))
		}
	}()

	if _, err := p.Run(); err != nil {
		log.Fatal("Caption viewer failed", "error", err)
	}
}
