// Package main applies the embedded schema migrations.
//
//	migrate up | down | steps N | version | force V
package main

import (
	"fmt"
	"os"
	"strconv"

	"workshop/internal/config"
	"workshop/internal/infrastructure/storage/postgres/migrations"
	"workshop/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | steps N | version | force V")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	m, err := migrations.New(cfg.Database.DSN, log)
	if err != nil {
		log.Fatalw("failed to open migrator", "error", err)
	}
	defer func() { _ = m.Close() }()

	arg := func() int {
		if len(os.Args) < 3 {
			usage()
		}
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			usage()
		}
		return n
	}

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(arg())
	case "force":
		err = m.Force(arg())
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	default:
		usage()
	}
	if err != nil {
		log.Errorw("migration command failed", "command", os.Args[1], "error", err)
		_ = m.Close()
		os.Exit(1)
	}
}
