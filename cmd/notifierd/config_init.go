package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ybtag/GrapheneMessaging/internal/config"
)

// configInitCmd interactively writes a starter configuration file.
func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "notifierd.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			cfg := &config.Config{Version: "1"}
			cfg.Defaults()
			enabled := true

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Application id").
						Description("Prefixes every notification tag").
						Value(&cfg.App.ID).
						Validate(notBlank),
					huh.NewInput().
						Title("Gateway bind address").
						Value(&cfg.Gateway.Bind).
						Validate(validBind),
					huh.NewInput().
						Title("Data directory").
						Description("Holds the SQLite database and avatar files").
						Value(&cfg.App.DataDir).
						Validate(notBlank),
					huh.NewSelect[string]().
						Title("Log format").
						Options(huh.NewOptions("text", "json")...).
						Value(&cfg.Log.Format),
					huh.NewConfirm().
						Title("Enable message notifications").
						Value(&enabled),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			cfg.Notifications.Enabled = enabled

			if err := config.Validate(cfg); err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func validBind(s string) error {
	if _, err := net.ResolveTCPAddr("tcp", s); err != nil {
		return fmt.Errorf("not a valid listen address")
	}
	return nil
}
