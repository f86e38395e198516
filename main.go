/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/obotesoftech/prisonreturns/cmd"

func main() {
	cmd.Execute()
}
