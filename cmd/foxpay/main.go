package main

import (
	"os"

	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		logging.Logger.WithError(err).Error("foxpay exited with error")
		os.Exit(1)
	}
}
