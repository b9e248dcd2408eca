package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"whorep/internal/app"
	"whorep/internal/config"
	"whorep/internal/export"
	"whorep/internal/hierarchy"
	"whorep/internal/menu"
	"whorep/internal/traverse"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "whorep",
		Short: "Find out who represents an address and who funds them",
		Long: `whorep looks up every officeholder representing a US street address,
links members of Congress to their campaign-finance records, and lets you
browse the result as Federal, State, Local and Peer Delegation groups.`,
		SilenceUsage: true,
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup [address]",
		Short: "Look up an address and browse its representatives",
		RunE:  runLookup,
	}
	lookupCmd.Flags().Bool("no-menu", false, "Print notices and save the export without browsing")

	openCmd := &cobra.Command{
		Use:   "open [file]",
		Short: "Browse a saved lookup without calling any provider",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOpen,
	}

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Render a saved lookup as json, html or pdf",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().String("format", string(export.FormatHTML), "Report format: json|html|pdf")
	exportCmd.Flags().String("out", "", "Output path (defaults to the report's file name)")
	exportCmd.Flags().Bool("publish", false, "Upload the report to object storage instead of writing a file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "whorep", version)
		},
	}

	rootCmd.AddCommand(lookupCmd, openCmd, exportCmd, serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := wire(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	address := strings.TrimSpace(strings.Join(args, " "))
	if address == "" {
		fmt.Fprint(out, "Enter your address: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		address = strings.TrimSpace(line)
	}

	build, err := rt.service.Build(ctx, address)
	if err != nil {
		return err
	}
	printNotices(out, build.Notices)

	data, err := hierarchy.Export(build.Hierarchy)
	if err != nil {
		return err
	}
	if err := writeFile(cfg.ExportPath, data); err != nil {
		rt.logger.Warn("lookup not saved", "path", cfg.ExportPath, "error", err)
	} else {
		fmt.Fprintf(out, "Saved lookup to %s\n", cfg.ExportPath)
	}

	if noMenu, _ := cmd.Flags().GetBool("no-menu"); noMenu {
		return nil
	}
	return menu.Run(ctx, traverse.New(build.Hierarchy), in, out)
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rt, err := wire(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	h, err := openSaved(rt.service, args, cfg.ExportPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return menu.Run(ctx, traverse.New(h), cmd.InOrStdin(), cmd.OutOrStdout())
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	rt, err := wire(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	h, err := openSaved(rt.service, args, cfg.ExportPath)
	if err != nil {
		return err
	}

	if publish, _ := cmd.Flags().GetBool("publish"); publish {
		location, err := rt.service.Publish(cmd.Context(), h, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %s\n", location)
		return nil
	}

	result, err := rt.service.Export(cmd.Context(), h, format)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = result.Filename
	}
	if err := writeFile(path, result.Data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := wire(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.search != nil {
		go rt.search.ReindexAllFromPG(ctx)
	}

	httpServer := app.NewHTTPServer(rt.service, cfg.CORSOrigin, rt.metrics, rt.registry)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		rt.logger.Info("whorep API listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.logger.Warn("shutdown error", "error", err)
	}
	return nil
}

// openSaved imports the lookup at args[0], or the last saved lookup.
func openSaved(svc *app.Service, args []string, fallback string) (*hierarchy.Hierarchy, error) {
	path := fallback
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readExport(path)
	if err != nil {
		return nil, err
	}
	return svc.Open(data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
