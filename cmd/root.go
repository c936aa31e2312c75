package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "newsagent"}

	root.AddCommand(serveCMD(), askCMD())
	_ = root.Execute()
}
