//go:build linux

package main

import (
	"fmt"
	"strings"

	"github.com/ja7ad/efficiency/pkg/bench"
	"github.com/ja7ad/efficiency/pkg/system/rapl"
)

func raplSource() (bench.PowerSource, string, error) {
	m, err := rapl.Discover(rapl.DefaultRoot)
	if err != nil {
		return nil, "", err
	}
	return m, fmt.Sprintf("rapl zones: %s", strings.Join(m.Zones(), ", ")), nil
}
