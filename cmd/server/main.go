package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/pkg/routes"
)

func main() {
	var (
		configPath string
		env        string
	)

	rootCmd := &cobra.Command{
		Use:   "route-tour",
		Short: "A guided tour of routing, validation, cookies, views and the request lifecycle",
		Long: `route-tour serves a small set of routes that exercise path parameters,
wildcards, payload validation, sealed cookies, layout-rendered views,
static files and lifecycle extensions.

Examples:
  route-tour serve
  route-tour serve --config config.toml --env local
  route-tour routes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if env != "" {
				os.Setenv(config.EnvServiceEnv, env)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.BaseConfigFile, "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Configuration overlay environment (sets "+config.EnvServiceEnv+")")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		routesCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func routesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd, *configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	srv.runtime.Logger.Info("server stopped gracefully")
	return nil
}

func runRoutes(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	runtime := NewRuntime(cfg)
	p, err := buildPipeline(runtime, cfg)
	if err != nil {
		return err
	}

	native := routes.New()
	registerRoutes(native, runtime, cfg)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tDESCRIPTION")
	for _, route := range nativeRoutes(native) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", route.Method, route.Pattern, route.Description)
	}
	for _, route := range p.Table() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", route.Method, route.Path, route.Description)
	}
	return w.Flush()
}

// nativeRoutes flattens the route system, prefixing group routes with their
// full group path.
func nativeRoutes(sys routes.System) []routes.Route {
	result := slices.Clone(sys.Routes())
	var walk func(prefix string, g routes.Group)
	walk = func(prefix string, g routes.Group) {
		prefix += g.Prefix
		for _, r := range g.Routes {
			r.Pattern = prefix + r.Pattern
			result = append(result, r)
		}
		for _, child := range g.Children {
			walk(prefix, child)
		}
	}
	for _, g := range sys.Groups() {
		walk("", g)
	}
	return result
}
