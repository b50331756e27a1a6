package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"wa-dashboard-go/internal/config"
	"wa-dashboard-go/internal/logger"
	"wa-dashboard-go/internal/whatsapp"

	"go.uber.org/zap"
)

// initLogger is swapped in tests
var initLogger = logger.Init

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("qrbootstrap", flag.ContinueOnError)
	flags.SetOutput(stderr)
	key := flags.String("key", "", "Session key to initialise on the instance service")
	instance := flags.String("instance", "", "Override WA_INSTANCE_URL")
	outDir := flags.String("out", ".", "Directory for the qr-<key>.png file")
	printOnly := flags.Bool("print", false, "Print the QR payload instead of writing a file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *key == "" && flags.NArg() > 0 {
		*key = flags.Arg(0)
	}
	if strings.TrimSpace(*key) == "" {
		fmt.Fprintln(stderr, "usage: qrbootstrap [-instance URL] [-out DIR] [-print] <key>")
		return 2
	}

	cfg := config.Load()
	if *instance != "" {
		cfg.InstanceURL = strings.TrimRight(*instance, "/")
	}

	zl, err := initLogger(cfg.LogMode, "")
	if err != nil {
		fmt.Fprintf(stderr, "❌ Failed to initialize logger: %v\n", err)
		return 1
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := whatsapp.NewBootstrapper(cfg.InstanceURL, cfg.QRDelay, cfg.HTTPTimeout, cfg.QRAttempts)
	session, err := b.Bootstrap(ctx, *key)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %s: %v\n", whatsapp.ErrorCode(err), err)
		if errors.Is(err, whatsapp.ErrNotConfigured) {
			fmt.Fprintln(stderr, "   set WA_INSTANCE_URL or pass -instance")
		}
		return 1
	}

	if *printOnly || !strings.HasPrefix(session.QRCode, "data:") {
		fmt.Fprintln(stdout, session.QRCode)
		return 0
	}

	path, err := writeQR(*outDir, session)
	if err != nil {
		zap.S().Errorf("❌ Failed to write QR image: %v", err)
		return 1
	}
	fmt.Fprintf(stdout, "✅ QR for %s written to %s\n", session.Key, path)
	return 0
}

func writeQR(dir string, session *whatsapp.Session) (string, error) {
	_, data, err := whatsapp.DecodeDataURI(session.QRCode)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := "qr-" + strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(session.Key) + ".png"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
