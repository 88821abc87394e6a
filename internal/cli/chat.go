package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmallory/solace/internal/agent"
	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/llm"
	"github.com/jmallory/solace/internal/store"
)

func newChatCmd() *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Solace in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sessions := store.NewMemoryStore()
			local := llm.NewLocalClient(cfg.Local, log)
			remote := llm.NewRemoteClient(cfg.Remote, log)
			orchestrator := agent.New(sessions, local, remote, cfg.Hybrid, true, log)

			return runChatLoop(ctx, orchestrator, showSource)
		},
	}

	cmd.Flags().BoolVar(&showSource, "show-source", false, "print which model each reply came from")

	return cmd
}

const chatBanner = `Solace — a space to talk things through.
Type /help for commands, /quit to leave.`

const chatHelp = `Commands:
  /help      show this help
  /history   show the conversation so far
  /summary   show session details
  /clear     start a fresh session
  /quit      end the session and exit`

// runChatLoop reads lines from stdin and runs one turn per line.
func runChatLoop(ctx context.Context, o *agent.Orchestrator, showSource bool) error {
	sess, err := o.StartSession(ctx)
	if err != nil {
		return err
	}
	sessionID := sess.ID

	fmt.Println(chatBanner)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, newID, err := handleChatCommand(ctx, o, sessionID, line)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if quit {
				break
			}
			sessionID = newID
			continue
		}

		res, err := o.ProcessMessage(ctx, sessionID, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}

		fmt.Printf("\nsolace> %s\n", res.Reply.Text)
		if showSource {
			fmt.Printf("        [source: %s", res.Reply.Metadata.PrimarySource)
			if res.Reply.Metadata.CustomConfidence != nil {
				fmt.Printf(", confidence: %.2f", *res.Reply.Metadata.CustomConfidence)
			}
			fmt.Println("]")
		}
	}

	_ = o.EndSession(context.Background(), sessionID)
	fmt.Println("\nTake care of yourself.")
	return scanner.Err()
}

// handleChatCommand runs a slash command. It returns whether to quit and
// the (possibly replaced) session id.
func handleChatCommand(ctx context.Context, o *agent.Orchestrator, sessionID, line string) (bool, string, error) {
	switch strings.ToLower(line) {
	case "/quit", "/exit":
		return true, sessionID, nil

	case "/help":
		fmt.Println(chatHelp)
		return false, sessionID, nil

	case "/history":
		sess, err := o.GetSession(ctx, sessionID)
		if err != nil {
			return false, sessionID, err
		}
		if len(sess.Turns) == 0 {
			fmt.Println("No turns yet.")
			return false, sessionID, nil
		}
		for _, turn := range sess.Turns {
			fmt.Printf("you>    %s\n", turn.UserText)
			fmt.Printf("solace> %s\n", turn.AssistantText)
		}
		return false, sessionID, nil

	case "/summary":
		sess, err := o.GetSession(ctx, sessionID)
		if err != nil {
			return false, sessionID, err
		}
		s := sess.Summarize()
		fmt.Printf("session:  %s\n", s.SessionID)
		fmt.Printf("started:  %s\n", s.CreatedAt.Local().Format("15:04:05"))
		fmt.Printf("turns:    %d\n", s.TurnCount)
		fmt.Printf("duration: %d min\n", s.DurationMinutes)
		fmt.Printf("state:    %s\n", s.EmotionalState)
		return false, sessionID, nil

	case "/clear":
		if err := o.EndSession(ctx, sessionID); err != nil {
			return false, sessionID, err
		}
		sess, err := o.StartSession(ctx)
		if err != nil {
			return false, sessionID, err
		}
		fmt.Println("Started a fresh session.")
		return false, sess.ID, nil

	default:
		return false, sessionID, fmt.Errorf("unknown command %q, try /help", line)
	}
}
