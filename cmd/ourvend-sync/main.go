package main

import (
	"ourvend-sync/cmd/ourvend-sync/commands"
	"ourvend-sync/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
