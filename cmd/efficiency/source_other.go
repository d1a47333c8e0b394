//go:build !linux

package main

import (
	"errors"

	"github.com/ja7ad/efficiency/pkg/bench"
)

func raplSource() (bench.PowerSource, string, error) {
	return nil, "", errors.New("rapl: linux only")
}
