// main.go

package main

import (
	"github.com/morselabs/wpsnap/cmd"
	"github.com/morselabs/wpsnap/pkg/logger"
	"github.com/morselabs/wpsnap/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()
	if err := telemetry.Init("wpsnap"); err != nil {
		logger.L().Warn("Telemetry disabled: " + err.Error())
	}

	cmd.Execute()
}
