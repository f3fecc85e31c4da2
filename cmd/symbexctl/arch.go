package main

import (
	"fmt"

	"github.com/joshuapare/symbex/pkg/arch"
)

func archByName(name string) (arch.ID, error) {
	switch name {
	case "x86-64", "x8664", "amd64":
		return arch.X8664, nil
	case "aarch64", "arm64":
		return arch.AArch64, nil
	default:
		return arch.Invalid, fmt.Errorf("unknown architecture %q (want x86-64 or aarch64)", name)
	}
}
