package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/GriffinCanCode/BabyBrowser/internal/browser"
	"github.com/GriffinCanCode/BabyBrowser/internal/config"
	"github.com/GriffinCanCode/BabyBrowser/internal/logging"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/client"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
)

func main() {
	width := flag.Int("width", 640, "Viewport width in pixels")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: browse [-width N] <url>")
		os.Exit(2)
	}
	url := flag.Arg(0)

	cfg := config.LoadOrDefault()
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	b := browser.New(cfg, logger)
	defer b.Close()

	page, err := b.Load(context.Background(), url)
	if err != nil {
		var badStatus *client.BadStatusError
		if errors.As(err, &badStatus) {
			// Render the error page like any other document.
			logger.Warn("server returned error status",
				zap.Int("status", badStatus.Status),
				zap.String("url", badStatus.URL))
		} else {
			logger.Error("failed to load page", zap.String("url", url), zap.Error(err))
			os.Exit(1)
		}
	}

	lines := b.Layout(page, *width)
	engine := b.Engine()

	fmt.Printf("== %s ==\n", page.Title)
	for _, line := range lines {
		var out strings.Builder
		col := 0
		for _, fragment := range line.Fragments {
			for target := fragment.X / engine.HStep; col < target; col++ {
				out.WriteString(" ")
			}
			out.WriteString(fragment.Text)
			col += runewidth.StringWidth(fragment.Text)
		}
		fmt.Println(out.String())
	}
}
