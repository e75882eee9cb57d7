package main

import "trino-query-log/internal/cli"

func main() {
	cli.Execute()
}
