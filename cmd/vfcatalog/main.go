package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vfstudio/vfcatalog/config"
	_ "github.com/vfstudio/vfcatalog/docs"
	"github.com/vfstudio/vfcatalog/internal/adminapi"
	"github.com/vfstudio/vfcatalog/internal/api"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/catalog/transfer"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"go.uber.org/zap"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "vfcatalog",
		Short:         "Furniture catalog server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default vfcatalog.yml or /etc/vfcatalog.yml)")

	serve := &cobra.Command{Use: "serve", Short: "Run the http server", RunE: runServe}

	var reset bool
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := open()
			if err != nil {
				return err
			}
			defer application.Release()
			if reset {
				application.DropAll()
			}
			return application.MigrateDB(true)
		},
	}
	migrate.Flags().BoolVar(&reset, "reset", false, "drop every table first")

	importCmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Import products from a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	var status string
	exportCmd := &cobra.Command{
		Use:   "export <file.csv|file.xlsx>",
		Short: "Export products to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args[0], status)
		},
	}
	exportCmd.Flags().StringVar(&status, "status", "", "only export products with this status")

	root.AddCommand(serve, migrate, importCmd, exportCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	return config.LoadConfig(configFile)
}

// open connects to the database and builds the services without starting
// jobs or seeding accounts.
func open() (*app.Application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	application := app.NewApplication(cfg)
	if err := application.Open(cfg); err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := application.MigrateDB(false); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	application.InitServices()
	return application, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	api.Init()
	adminapi.Init()
	server := webserver.NewWebServer(application)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case s := <-sig:
		zap.S().Infof("received %s, shutting down", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runImport(cmd *cobra.Command, args []string) error {
	application, err := open()
	if err != nil {
		return err
	}
	defer application.Release()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var rows []transfer.Row
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".csv":
		rows, err = transfer.ReadCSV(f)
	case ".xlsx":
		rows, err = transfer.ReadXLSX(f)
	default:
		return errors.Errorf("unsupported file type %s", filepath.Ext(args[0]))
	}
	if err != nil {
		return err
	}
	report, err := application.Importer().Import(cmd.Context(), rows)
	if err != nil {
		return err
	}
	fmt.Printf("rows: %d  created: %d  invalid: %d  conflicts: %d\n",
		report.Total, report.Created, len(report.Invalid), len(report.Conflicts))
	for _, e := range append(report.Invalid, report.Conflicts...) {
		fmt.Printf("  line %d (%s): %s\n", e.Line, e.Code, e.Error)
	}
	return nil
}

func runExport(path, status string) error {
	application, err := open()
	if err != nil {
		return err
	}
	defer application.Release()

	rows, err := transfer.Export(context.Background(), application.Products(), catalog.Predicate{Status: status})
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = transfer.WriteXLSX(f, rows)
	default:
		err = transfer.WriteCSV(f, rows)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %d products to %s\n", len(rows), path)
	return nil
}
