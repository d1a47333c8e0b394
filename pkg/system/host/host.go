// Package host captures the machine identity recorded alongside a run.
package host

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ja7ad/efficiency/pkg/types"
)

// Summary is a best-effort description of the benchmark host. Probes that
// fail leave their fields zero so a run still records on exotic platforms.
type Summary struct {
	Hostname      string      `json:"hostname,omitempty"`
	OS            string      `json:"os,omitempty"`
	Platform      string      `json:"platform,omitempty"`
	KernelVersion string      `json:"kernel,omitempty"`
	CPUModel      string      `json:"cpu_model,omitempty"`
	LogicalCores  int         `json:"logical_cores,omitempty"`
	MemoryTotal   types.Bytes `json:"memory_total_bytes,omitempty"`
}

// Collect probes the host once. Every probe is optional.
func Collect() Summary {
	var s Summary

	if info, err := host.Info(); err == nil {
		s.Hostname = info.Hostname
		s.OS = info.OS
		s.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		s.KernelVersion = info.KernelVersion
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil {
		s.LogicalCores = n
	}
	if v, err := mem.VirtualMemory(); err == nil {
		s.MemoryTotal = types.Bytes(v.Total)
	}

	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (%s, %d cores, %s)", s.Hostname, s.CPUModel, s.LogicalCores, s.MemoryTotal.Humanized())
}
