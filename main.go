package main

import (
	"github.com/cinegate/cinegate/cmd"
	"github.com/cinegate/cinegate/config"
	"github.com/cinegate/cinegate/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
