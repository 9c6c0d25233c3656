package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-rl/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagModel       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spectator SSH server",
	Long: `Start an SSH server that lets users watch the trained agent fly.

Each SSH connection loads the model into its own agent and flies it
greedily; nothing is learned and nothing is saved.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.flappyrl/host_key

Examples:
  flappyrl serve                          # Listen on :23234, watch training.model_folder
  flappyrl serve --model latest           # Watch the rolling checkpoint
  flappyrl serve --ssh :2222              # Listen on port 2222

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Snapshot folder under models_dir (default from config)")
}

func runServe(_ *cobra.Command, _ []string) {
	game := mustLoadConfig()
	if flagModel != "" {
		game.Training.ModelFolder = flagModel
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Game:        game,
		Logger:      newLogger(),
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting flappyrl SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
