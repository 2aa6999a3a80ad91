package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

func GetBestH264Encoder() string {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

// pickEncoder выбирает лучший H.264 энкодер из вывода `ffmpeg -encoders`.
func pickEncoder(available string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(available, name) {
			return name
		}
	}
	return "libx264"
}

// ResourceUsage снимок потребления ресурсов текущим процессом.
type ResourceUsage struct {
	RSS        uint64  // Резидентная память процесса, байт
	CPUPercent float64 // Загрузка CPU процессом с момента старта
	SystemUsed float64 // Занятая память системы, %
}

func (u ResourceUsage) String() string {
	return fmt.Sprintf("RSS: %.1f MB | CPU: %.1f%% | System RAM: %.1f%%",
		float64(u.RSS)/(1<<20), u.CPUPercent, u.SystemUsed)
}

// Usage собирает статистику через gopsutil. Недоступные метрики остаются нулевыми.
func Usage() (ResourceUsage, error) {
	var u ResourceUsage
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return u, fmt.Errorf("process stats: %w", err)
	}
	if mi, err := p.MemoryInfo(); err == nil {
		u.RSS = mi.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		u.SystemUsed = vm.UsedPercent
	}
	return u, nil
}
