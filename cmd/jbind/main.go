// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Program jbind is a command-line tool for formatting, querying, comparing,
// and checking JSON documents.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
