package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/completion"
	"github.com/renatogalera/ai-chat/pkg/ui"
)

// NewChatCmd creates the interactive "chat" command.
func NewChatCmd() *cobra.Command {
	f := &callFlags{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.streamSet = cmd.Flags().Changed("stream")
			return runChat(f)
		},
	}
	f.register(cmd)
	return cmd
}

func runChat(f *callFlags) error {
	env, err := setupEnvironment(f)
	if err != nil {
		return err
	}
	defer env.cancel()

	buf, err := chat.NewMessageBuffer(nil)
	if err != nil {
		return err
	}
	defer buf.Destroy()

	if err := loadHistory(env.historyFile, buf); err != nil {
		return err
	}

	model := ui.NewChatModel(ui.Session{
		Client:      completion.New(),
		Buffer:      buf,
		Options:     env.opts,
		Provider:    env.cfg.Provider,
		HistoryFile: env.historyFile,
	})
	if _, err := ui.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
