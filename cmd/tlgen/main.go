// Package main is the entry point for tlgen, a TL schema compiler.
package main

func main() {
	Execute()
}
