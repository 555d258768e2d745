package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// daemonProgram adapts runDaemon to the service manager lifecycle.
type daemonProgram struct {
	cfgPath string
	cancel  context.CancelFunc
	done    chan error
}

// Compile-time interface check.
var _ service.Interface = (*daemonProgram)(nil)

// Start implements service.Interface. It must not block.
func (p *daemonProgram) Start(service.Service) error {
	cfg, err := loadConfig(p.cfgPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() { p.done <- runDaemon(ctx, cfg) }()
	return nil
}

// Stop implements service.Interface and waits for the daemon to shut down.
func (p *daemonProgram) Stop(service.Service) error {
	p.cancel()
	return <-p.done
}

func serviceSpec(cfgPath string) *service.Config {
	arguments := []string{"service", "run"}
	if cfgPath != "" {
		arguments = append(arguments, "--config", cfgPath)
	}
	return &service.Config{
		Name:        "notifierd",
		DisplayName: "Notifier Daemon",
		Description: "Notification aggregation and dispatch daemon for a messaging store",
		Arguments:   arguments,
	}
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage notifierd as a system service",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	newService := func(c *cobra.Command) (service.Service, error) {
		cfgPath, _ := c.Flags().GetString("config")
		return service.New(&daemonProgram{cfgPath: cfgPath}, serviceSpec(cfgPath))
	}

	for _, action := range []string{"install", "uninstall", "start", "stop", "restart"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the system service", action),
			RunE: func(c *cobra.Command, _ []string) error {
				svc, err := newService(c)
				if err != nil {
					return err
				}
				if err := service.Control(svc, c.Use); err != nil {
					return fmt.Errorf("service %s: %w", c.Use, err)
				}
				fmt.Printf("Service %s: OK\n", c.Use)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager (invoked by the manager, not directly)",
		Hidden: true,
		RunE: func(c *cobra.Command, _ []string) error {
			svc, err := newService(c)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	return cmd
}
