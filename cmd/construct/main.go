// Package main is the entry point for construct.
package main

func main() {
	Execute()
}
