package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/u296/wolframalpha-api/pkg/wolfram"
)

func main() {
	configPath := flag.String("config", "", "Config file (.yaml, .json or .json5)")
	appID := flag.String("appid", "", "Wolfram|Alpha app id (overrides config and WOLFRAM_APP_ID)")
	units := flag.String("units", "", "Unit system: metric or imperial")
	logLevel := flag.String("log-level", "warn", "Log level")
	asJSON := flag.Bool("json", false, "Print the normalized result as JSON")
	imagePath := flag.String("image", "", "Also save the simple API answer image to this PNG file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <question>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		flag.Usage()
		os.Exit(2)
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *appID != "" {
		cfg.AppID = *appID
	}
	if *units != "" {
		cfg.Units = *units
	}

	client, err := wolfram.NewClient(cfg, nil, &log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = log.WithContext(ctx)

	if err := run(ctx, client, question, *asJSON, *imagePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(exitCode(err))
	}
}

func loadConfig(path string) (*wolfram.Config, error) {
	if path == "" {
		return wolfram.ConfigFromEnv(), nil
	}
	return wolfram.LoadConfig(path)
}

func run(ctx context.Context, client *wolfram.Client, question string, asJSON bool, imagePath string) error {
	result, err := client.Query(ctx, question)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		printPods(os.Stdout, result)
	}

	if imagePath == "" {
		return nil
	}
	img, err := client.SimpleImage(ctx, question)
	if err != nil {
		return fmt.Errorf("fetching answer image: %w", err)
	}
	out, err := os.Create(imagePath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("writing %s: %w", imagePath, err)
	}
	return out.Close()
}

func printPods(w io.Writer, result *wolfram.QueryResult) {
	if !result.Success {
		fmt.Fprintln(w, "No answer.")
		return
	}
	for _, pod := range result.PodsByPosition() {
		marker := ""
		if pod.IsPrimary {
			marker = " *"
		}
		fmt.Fprintf(w, "== %s%s\n", pod.Title, marker)
		if text := pod.PlainText(); text != "" {
			fmt.Fprintln(w, text)
		}
	}
	for _, a := range result.Assumptions {
		if a.Word == nil {
			continue
		}
		opt, ok := a.Selected()
		if !ok && a.CurrentSelection == nil && len(a.Options) > 0 {
			// Upstream lists the interpretation it applied first.
			opt, ok = a.Options[0], true
		}
		if ok {
			fmt.Fprintf(w, "(assuming %q is %s)\n", *a.Word, opt.Description)
		}
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, wolfram.ErrInvalidQuestion):
		return 3
	case wolfram.IsUpstreamError(err):
		return 4
	case wolfram.IsSchemaViolation(err):
		return 5
	default:
		return 1
	}
}
