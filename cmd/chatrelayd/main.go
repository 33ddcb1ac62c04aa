// Command chatrelayd runs the chat-completion relay: an HTTP gateway that
// builds a reasoning agent per request and answers one query at a time,
// optionally consulting a web-search tool.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatrelay/chatrelay"
	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/gateway"
	"github.com/chatrelay/chatrelay/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatrelayd",
		Short:         "Chat-completion relay with an optional web-search tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), chatCmd())
	return cmd
}

func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			relay := chatrelay.New(cfg, func(o *chatrelay.Options) { o.Logger = logger })
			srv := gateway.NewServer(cfg.ListenAddr, relay.Gateway().Handler(), func(o *gateway.ServerOptions) {
				o.Logger = logger
			})
			return srv.Start(ctx)
		},
	}
}

func chatCmd() *cobra.Command {
	var (
		modelName    string
		allowSearch  bool
		systemPrompt string
		remoteAddr   string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt loop against the gateway",
		Long: "Starts an embedded gateway and a console prompt loop as two tasks.\n" +
			"The prompt loop waits for the gateway's readiness signal before\n" +
			"accepting input. With --addr it talks to an external gateway instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if modelName == "" {
				if len(cfg.AllowedModels) == 0 {
					return fmt.Errorf("no model selected and no allow-list configured")
				}
				modelName = cfg.AllowedModels[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var client *gateway.Client
			serverErr := make(chan error, 1)

			if remoteAddr != "" {
				client = gateway.NewClient(remoteAddr, nil)
				if err := client.WaitReady(ctx); err != nil {
					return err
				}
			} else {
				relay := chatrelay.New(cfg, func(o *chatrelay.Options) { o.Logger = logger })
				srv := gateway.NewServer(cfg.ListenAddr, relay.Gateway().Handler(), func(o *gateway.ServerOptions) {
					o.Logger = logger
				})
				go func() { serverErr <- srv.Start(ctx) }()

				select {
				case <-srv.Ready():
				case err := <-serverErr:
					return fmt.Errorf("gateway failed to start: %w", err)
				case <-ctx.Done():
					return ctx.Err()
				}
				client = gateway.NewClient("http://"+srv.Addr(), nil)
			}

			if err := promptLoop(ctx, cmd, client, modelName, allowSearch, systemPrompt); err != nil {
				return err
			}
			stop()

			select {
			case err := <-serverErr:
				return err
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&modelName, "model", "", "model identifier (defaults to the first allowed model)")
	cmd.Flags().BoolVar(&allowSearch, "search", false, "enable the web-search tool")
	cmd.Flags().StringVar(&systemPrompt, "system", "", "system prompt for the agent")
	cmd.Flags().StringVar(&remoteAddr, "addr", "", "use an external gateway at this base URL instead of embedding one")
	return cmd
}

func promptLoop(ctx context.Context, cmd *cobra.Command, client *gateway.Client, modelName string, allowSearch bool, systemPrompt string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chatting with %s (search: %v), type 'exit' or Ctrl-D to quit\n", modelName, allowSearch)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return nil
		}

		text, err := client.Chat(ctx, gateway.ChatRequest{
			Query:        query,
			ModelName:    modelName,
			AllowSearch:  allowSearch,
			SystemPrompt: systemPrompt,
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, text)
	}
}
