package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/renatogalera/ai-chat/pkg/attach"
	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/completion"
	"github.com/renatogalera/ai-chat/pkg/history"
)

type askFlags struct {
	callFlags
	role   string
	images []string
	audio  []string
	files  []string
}

// NewAskCmd creates the "ask" command: one request, reply on stdout.
func NewAskCmd() *cobra.Command {
	f := &askFlags{}
	cmd := &cobra.Command{
		Use:   "ask [PROMPT...]",
		Short: "Send one message and print the reply",
		Long: `Appends the prompt (and any attachments) to the conversation, sends it to
the configured provider and prints the reply. Without arguments the prompt is
read from stdin. With --history the conversation is loaded first and saved
afterwards, reply included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.streamSet = cmd.Flags().Changed("stream")
			return runAsk(cmd, args, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.role, "role", chat.RoleUser.String(), "Role of the new message (user, assistant, tool)")
	cmd.Flags().StringSliceVar(&f.images, "image", nil, "Attach an image file")
	cmd.Flags().StringSliceVar(&f.audio, "audio", nil, "Attach a WAV file")
	cmd.Flags().StringSliceVar(&f.files, "file", nil, "Attach a file")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string, f *askFlags) error {
	role, err := chat.ParseRole(f.role)
	if err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" && len(f.images)+len(f.audio)+len(f.files) == 0 {
		return fmt.Errorf("nothing to send: pass a prompt or an attachment")
	}

	env, err := setupEnvironment(&f.callFlags)
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
	if err := appendAttachments(buf, role, f); err != nil {
		return err
	}
	if prompt != "" {
		if err := buf.AppendText(role, prompt); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	client := completion.New()
	reply, err := client.Ask(env.ctx, buf, env.opts, func(d string) {
		fmt.Fprint(out, d)
	})
	if reply != "" {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}
	if reply == "" {
		log.Warn().Msg("The response did not contain any content")
	}

	if env.historyFile != "" {
		if err := history.Save(env.historyFile, buf); err != nil {
			return err
		}
		log.Debug().Str("history", env.historyFile).Msg("Conversation saved")
	}
	return nil
}

func appendAttachments(buf *chat.MessageBuffer, role chat.Role, f *askFlags) error {
	groups := []struct {
		typ   chat.ContentType
		paths []string
	}{
		{chat.ContentImage, f.images},
		{chat.ContentAudio, f.audio},
		{chat.ContentFile, f.files},
	}
	for _, g := range groups {
		for _, p := range g.paths {
			data, err := attach.Load(p, g.typ)
			if err != nil {
				return err
			}
			if err := buf.Append(data, role, g.typ); err != nil {
				return err
			}
			log.Debug().Str("path", p).Str("type", g.typ.String()).Msg("Attached file")
		}
	}
	return nil
}
