// Package main provides a short usage banner for the repository root.
// The actual CLIs live under cmd/tomasim, cmd/profile, and cmd/benchmark.
package main

import "fmt"

func main() {
	fmt.Println("m2sim - Tomasulo dynamic scheduling simulator")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim <program.asm>' to simulate a program.")
	fmt.Println("Run 'go run ./cmd/profile <program.asm>' to profile the engine.")
	fmt.Println("Run 'go run ./cmd/benchmark' to run the calibration benchmark suite.")
}
