package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fallwind/s-node/app"
	"github.com/fallwind/s-node/cmd"
	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/logger"
)

func runApp() {
	a := app.NewApp()
	err := a.Init()
	if err != nil {
		log.Fatal(err)
	}

	err = a.Start()
	if err != nil {
		logger.Error(err)
		a.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	// The process lives as long as the engine does: a dead engine ends
	// the run with the engine's own exit code, SIGHUP reruns the whole
	// pipeline.
	engineExit := a.WaitEngine()
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Info("restarting the node")
				if err := a.Restart(); err != nil {
					logger.Error(err)
					a.Stop()
					os.Exit(1)
				}
				engineExit = a.WaitEngine()
			default:
				a.Stop()
				os.Exit(0)
			}
		case code := <-engineExit:
			logger.Warning("engine exited with code ", code)
			a.Stop()
			os.Exit(code)
		}
	}
}

func main() {
	if len(os.Args) < 2 {
		runApp()
		return
	}

	switch os.Args[1] {
	case "run":
		runApp()
	case "admin", "setting":
		cmd.ParseCmd(os.Args[1:])
	case "-v", "--version", "version":
		fmt.Println(config.GetVersion())
	default:
		fmt.Println("usage:", os.Args[0], "[run | admin | setting | version]")
	}
}
