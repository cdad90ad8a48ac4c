package main

import "os"

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		cmd.PrintErrln("Error:", helpful(err))
		switch err.(type) {
		case usageError:
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		}
		os.Exit(1)
	}
}
