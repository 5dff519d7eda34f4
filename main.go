package main

import (
	"github.com/xiaobei/singbox-manager/cmd"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	cmd.Execute()
}
