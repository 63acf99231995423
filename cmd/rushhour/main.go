package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rushhour/config"
	"github.com/domino14/rushhour/shell"
)

var (
	GitVersion string
)

//go:embed rushhour.txt
var banner string

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// startCPUProfile returns the function that stops the profile.
func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}

func main() {
	cfg := &config.Config{}
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// Relative data paths missing from the working directory are looked up
	// next to the executable.
	if ex, err := os.Executable(); err == nil {
		cfg.AdjustRelativePaths(filepath.Dir(ex), fileExists)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Interface("settings", cfg.SanitizedSettings()).Msg("loaded-config")

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		stop, err := startCPUProfile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer stop()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	sc := shell.NewShellController(cfg, GitVersion)
	if line := strings.TrimSpace(strings.Join(args, " ")); line != "" {
		sc.Execute(sig, line)
	} else {
		fmt.Println(banner)
		fmt.Println(GitVersion)
		go sc.Loop(sig)
		<-sig
		log.Debug().Msg("got quit signal...")
	}

	if path := cfg.GetString(config.ConfigMemProfile); path != "" {
		if err := writeHeapProfile(path); err != nil {
			log.Error().Err(err).Msg("could not write memory profile")
		}
	}
	sc.Cleanup()
}
