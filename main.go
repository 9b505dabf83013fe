package main

import "github.com/keyleak/keyleak/cmd/keyleak"

func main() { keyleak.Execute() }
