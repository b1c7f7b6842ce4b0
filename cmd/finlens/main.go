// Package main is the finlens command line tool. It runs the portfolio
// optimizer and the financial health scorer on local CSV files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
