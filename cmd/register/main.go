// Command register runs one registration from the command line and prints
// the result view.
//
//	register -store tienda-01 -name "Juan Perez" -phone 987654321 -photo voucher.jpg -accept-terms
//	register -result
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"

	"github.com/promo-claim/internal/app"
	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/application/registration"
	"github.com/promo-claim/internal/application/result"
	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/device"
)

type options struct {
	store       string
	name        string
	phone       string
	dni         string
	photoPath   string
	acceptTerms bool
	resultOnly  bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.store, "store", "", "store identifier")
	fs.StringVar(&o.name, "name", "", "participant name (max 45 characters)")
	fs.StringVar(&o.phone, "phone", "", "phone number (9 digits)")
	fs.StringVar(&o.dni, "dni", "", "national ID (optional, up to 9 digits)")
	fs.StringVar(&o.photoPath, "photo", "", "path to the voucher photo")
	fs.BoolVar(&o.acceptTerms, "accept-terms", false, "accept the terms and conditions")
	fs.BoolVar(&o.resultOnly, "result", false, "print the last result of this device and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return o, errUsage
	}
	return o, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLevel(cfg.LogLevel)})))

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	deviceID, err := device.ResolveID(cfg.DeviceIDFile)
	if err != nil {
		log.Fatalf("device id: %v", err)
	}
	recovery, err := app.NewRecoveryStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("recovery store: %v", err)
	}
	os.Exit(run(context.Background(), cfg, recovery, deviceID, opts, os.Stdout))
}

func run(ctx context.Context, cfg *config.Config, recovery app.RecoveryStore, deviceID string, o options, out io.Writer) int {
	results := result.NewService(recovery)
	if o.resultOnly {
		printView(out, results.Load(ctx, deviceID, nil))
		return 0
	}

	previews := photo.NewMemoryPreviews()
	deps, err := app.FlowDeps(ctx, cfg, previews, recovery)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	flow := registration.New(o.store, deviceID, deps)
	defer flow.Close()

	if err := flow.SetFields(domain.Registration{Name: o.name, DNI: o.dni, PhoneNumber: o.phone}); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	if o.photoPath != "" {
		p, err := loadPhoto(o.photoPath)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		if err := flow.SelectFile(ctx, p); err != nil {
			fmt.Fprintln(out, flow.Snapshot().Message)
			return 1
		}
	}
	if o.acceptTerms {
		flow.AcceptTerms()
	}

	outcome, err := flow.Submit(ctx)
	switch {
	case errors.Is(err, domain.ErrTermsPending):
		fmt.Fprintln(out, "Debes aceptar los términos y condiciones (-accept-terms).")
		return 2
	case err != nil:
		fmt.Fprintln(out, claim.Message(err))
		return 1
	}
	printView(out, results.Load(ctx, deviceID, &outcome.State))
	return 0
}

func loadPhoto(path string) (*domain.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return &domain.Photo{
		Filename:  filepath.Base(path),
		MediaType: mimetype.Detect(data).String(),
		Data:      data,
	}, nil
}

func printView(out io.Writer, v result.View) {
	fmt.Fprintf(out, "Premio: %s\n", v.PrizeName)
	if v.ImagePath != "" {
		fmt.Fprintf(out, "Imagen: %s\n", v.ImagePath)
	}
	if v.PhotoURL != "" {
		fmt.Fprintf(out, "Voucher: %s\n", v.PhotoURL)
	}
}
