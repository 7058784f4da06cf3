package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"arcctl/lib/app"
	"arcctl/lib/config"
	"arcctl/lib/device"
	"arcctl/lib/logging"
	"arcctl/lib/midiport"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "arcctl",
	Short:         "Rotary encoder ring controller: LFOs, LED rings, MIDI and OSC out",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		e, err := config.ParseEnv()
		if err != nil {
			return err
		}
		path := config.Path(configPath, e)
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		level, err := logging.ParseLevel(c.Log.Level)
		if err != nil {
			return err
		}
		logging.SetDefaultLevel(level)
		configPath = path
		cfg = c
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller on the configured device",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Open(cfg, configPath)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print events from the configured device",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := app.OpenDevice(cfg)
		if err != nil {
			return err
		}
		defer dev.Close()

		ctx := cmd.Context()
		events := make(chan device.Event, 64)
		go func() {
			for {
				select {
				case ev := <-events:
					fmt.Println(ev)
				case <-ctx.Done():
					return
				}
			}
		}()
		fmt.Printf("Monitoring %s device\n", cfg.Device.Backend)
		err = dev.Run(ctx, events)
		fmt.Println()
		return err
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := midiport.Names()
		fmt.Println("Input ports:")
		for _, p := range in {
			fmt.Printf("  %s\n", p)
		}
		fmt.Println("Output ports:")
		for _, p := range out {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $ARCCTL_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
	rootCmd.AddCommand(runCmd, monitorCmd, portsCmd)
}

func main() {
	defer midi.CloseDriver()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		midi.CloseDriver()
		os.Exit(1)
	}
}
