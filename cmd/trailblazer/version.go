package main

import (
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/common"
)

func init() {
	registerVerb("version", runVersion)
}

func runVersion(args []string) error {
	fmt.Printf("trailblazer version %s\n", common.GetVersion())
	return nil
}
