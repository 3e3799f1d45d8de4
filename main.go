package main

import (
	"os"

	"github.com/mevkit/chainswap/cmd"
	"github.com/mevkit/chainswap/config"
	"github.com/mevkit/chainswap/utils"

	"go.uber.org/zap"
)

func main() {
	// A missing .env file is the normal case outside development.
	_ = config.LoadEnv()

	log := utils.GetLogger()
	defer utils.CleanupLogger()

	if err := cmd.Execute(); err != nil {
		log.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
