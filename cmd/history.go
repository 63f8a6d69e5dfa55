package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/history"
	"github.com/renatogalera/ai-chat/pkg/ui"
)

// NewHistoryCmd groups the commands that inspect saved conversations.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved conversations",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			infos, err := history.List(cfg.HistoryDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintf(out, "No conversations in %s\n", cfg.HistoryDir)
				return nil
			}
			for _, info := range infos {
				fmt.Fprintln(out, historyLabel(info))
			}
			return nil
		},
	}
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [FILE]",
		Short: "Print a saved conversation; without FILE pick one with a fuzzy finder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				if path, err = resolveHistoryPath(cfg, args[0]); err != nil {
					return err
				}
			} else if path, err = pickHistory(cfg.HistoryDir); err != nil || path == "" {
				return err
			}

			turns, err := history.ReadTurns(path)
			if err != nil {
				return err
			}
			printConversation(cmd.OutOrStdout(), filepath.Base(path), turns)
			return nil
		},
	}
}

func historyLabel(info history.Info) string {
	return fmt.Sprintf("%s | %s | %s", info.Name, humanize.Bytes(uint64(info.Size)), humanize.Time(info.ModTime))
}

// pickHistory returns an empty path when the user aborts the finder.
func pickHistory(dir string) (string, error) {
	infos, err := history.List(dir)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no conversations found in %s", dir)
	}
	idx, err := fuzzyfinder.Find(
		infos,
		func(i int) string { return historyLabel(infos[i]) },
		fuzzyfinder.WithPromptString("Select a conversation> "),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", fmt.Errorf("fuzzyfinder error: %w", err)
	}
	return infos[idx].Path, nil
}

// printConversation renders turns with lipgloss, one block per entry.
func printConversation(w io.Writer, title string, turns []history.Turn) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63")).
		Underline(true).
		MarginBottom(1)

	roleStyles := map[chat.Role]lipgloss.Style{
		chat.RoleUser:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		chat.RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		chat.RoleTool:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}

	contentStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		PaddingLeft(2)

	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	fmt.Fprintln(w, headerStyle.Render(title))
	if len(turns) == 0 {
		fmt.Fprintln(w, contentStyle.Render("(empty conversation)"))
	}
	for _, t := range turns {
		fmt.Fprintln(w, roleStyles[t.Role].Render(t.Role.String()))
		fmt.Fprintln(w, contentStyle.Render(strings.TrimRight(ui.TurnBody(t), "\n")))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, separatorStyle.Render(strings.Repeat("─", 50)))
}
