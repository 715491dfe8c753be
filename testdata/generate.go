//go:build ignore

// This script generates Ogg Vorbis test data for decoder testing.
// Run with: go run testdata/generate.go
//
// Requirements: FFmpeg built with libvorbis must be installed and available
// in PATH.
//
// Generated test data structure:
//   testdata/generated/
//   ├── 44100_stereo_q5/
//   │   ├── sine1k.ogg
//   │   ├── sine1k.json
//   │   └── ...
//   ├── 8000_mono_q0/
//   └── ...

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/llehouerou/go-vorbis/internal/output"
)

// TestConfig describes one generated fixture.
type TestConfig struct {
	SampleRate  int     `json:"sample_rate"`
	NumChannels int     `json:"num_channels"` // 1=mono, 2=stereo
	Quality     float64 `json:"quality"`      // libvorbis -q, -1 to 10
	Seconds     float64 `json:"seconds"`
	Frames      int     `json:"frames"` // Samples per channel in the source
}

var configs = []TestConfig{
	{44100, 2, 5, 1, 0},   // Typical music setting
	{44100, 1, 3, 1, 0},   // Mono
	{48000, 2, 8, 1, 0},   // High quality, wide codebooks
	{48000, 2, -1, 1, 0},  // Lowest quality, floor-heavy
	{22050, 2, 2, 1, 0},   // Low sample rate
	{8000, 1, 0, 2, 0},    // Speech-like rate, long enough for several pages
	{96000, 2, 6, 0.5, 0}, // High sample rate
}

var audioTypes = []string{"silence", "sine1k", "sweep", "noise", "impulse", "speech_like"}

func main() {
	if err := checkFFmpeg(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please install FFmpeg with libvorbis: https://ffmpeg.org/download.html\n")
		os.Exit(1)
	}

	baseDir := filepath.Join("testdata", "generated")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, cfg := range configs {
		cfg.Frames = int(float64(cfg.SampleRate) * cfg.Seconds)
		dirName := fmt.Sprintf("%d_%s_q%s", cfg.SampleRate, channelName(cfg.NumChannels), qualityName(cfg.Quality))
		dir := filepath.Join(baseDir, dirName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory %s: %v\n", dir, err)
			continue
		}
		for _, audioType := range audioTypes {
			if err := generateTestCase(dir, audioType, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %s/%s: %v\n", dirName, audioType, err)
			} else {
				fmt.Printf("Generated %s/%s\n", dirName, audioType)
			}
		}
	}

	// A chained file: two sections with different formats.
	chained := filepath.Join(baseDir, "chained.ogg")
	if err := generateChained(baseDir, chained); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating chained.ogg: %v\n", err)
	} else {
		fmt.Println("Generated chained.ogg")
	}

	fmt.Println("\nDone!")
}

func checkFFmpeg() error {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if !strings.Contains(string(out), "libvorbis") {
		return fmt.Errorf("ffmpeg was built without libvorbis")
	}
	return nil
}

func channelName(n int) string {
	if n == 1 {
		return "mono"
	}
	return "stereo"
}

func qualityName(q float64) string {
	if q < 0 {
		return fmt.Sprintf("m%g", -q)
	}
	return fmt.Sprintf("%g", q)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func generateTestCase(dir, audioType string, cfg TestConfig) error {
	wavPath := filepath.Join(dir, audioType+".wav")
	oggPath := filepath.Join(dir, audioType+".ogg")
	jsonPath := filepath.Join(dir, audioType+".json")

	// Skip if all files exist
	if fileExists(oggPath) && fileExists(jsonPath) {
		return nil
	}

	if err := generateWAV(wavPath, audioType, cfg); err != nil {
		return fmt.Errorf("generating WAV: %w", err)
	}
	defer os.Remove(wavPath)

	if err := encodeVorbis(wavPath, oggPath, cfg.Quality, 0); err != nil {
		return fmt.Errorf("encoding Vorbis: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, data, 0644)
}

// generateChained concatenates a stereo 44.1 kHz and a mono 22.05 kHz
// stream, each with its own serial number.
func generateChained(dir, path string) error {
	if fileExists(path) {
		return nil
	}
	parts := []TestConfig{
		{44100, 2, 4, 0.5, 22050},
		{22050, 1, 4, 0.5, 11025},
	}
	var chained []byte
	for i, cfg := range parts {
		wavPath := filepath.Join(dir, fmt.Sprintf("chained_%d.wav", i))
		oggPath := filepath.Join(dir, fmt.Sprintf("chained_%d.ogg", i))
		if err := generateWAV(wavPath, "sweep", cfg); err != nil {
			return err
		}
		err := encodeVorbis(wavPath, oggPath, cfg.Quality, 1000+i)
		os.Remove(wavPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(oggPath)
		os.Remove(oggPath)
		if err != nil {
			return err
		}
		chained = append(chained, data...)
	}
	return os.WriteFile(path, chained, 0644)
}

func encodeVorbis(wavPath, oggPath string, quality float64, serial int) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", wavPath,
		"-c:a", "libvorbis", "-q:a", fmt.Sprintf("%g", quality)}
	if serial != 0 {
		args = append(args, "-serial_offset", fmt.Sprint(serial))
	}
	args = append(args, "-f", "ogg", oggPath)
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func generateWAV(path, audioType string, cfg TestConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	samples := cfg.Frames
	if samples == 0 {
		samples = int(float64(cfg.SampleRate) * cfg.Seconds)
	}

	interleaved := make([]float32, 0, samples*cfg.NumChannels)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < cfg.NumChannels; ch++ {
			var sample float64
			t := float64(i) / float64(cfg.SampleRate)

			switch audioType {
			case "silence":
				sample = 0

			case "sine1k":
				// Pure 1kHz sine wave
				sample = 0.8 * math.Sin(2*math.Pi*1000*t)

			case "sweep":
				// Logarithmic sweep from 20Hz to Nyquist/2
				maxFreq := float64(cfg.SampleRate) / 4
				progress := float64(i) / float64(samples)
				freq := 20 * math.Pow(maxFreq/20, progress)
				sample = 0.7 * math.Sin(2*math.Pi*freq*t)

			case "noise":
				// Pseudo-random noise using LCG (deterministic)
				seed := uint32(i*cfg.NumChannels + ch + 12345)
				seed = seed*1103515245 + 12345
				sample = float64(int32(seed)) / float64(math.MaxInt32) * 0.5

			case "impulse":
				// Periodic impulses, short blocks around each one
				period := cfg.SampleRate / 10
				if i%period == 0 {
					sample = 0.9
				}

			case "speech_like":
				f0 := 150.0
				sample = 0.3 * math.Sin(2*math.Pi*f0*t)
				sample += 0.2 * math.Sin(2*math.Pi*2*f0*t)
				sample += 0.15 * math.Sin(2*math.Pi*3*f0*t)
				sample += 0.1 * math.Sin(2*math.Pi*4*f0*t)
				seed := uint32(i*cfg.NumChannels + ch + 54321)
				seed = seed*1103515245 + 12345
				sample += float64(int32(seed)) / float64(math.MaxInt32) * 0.05
				sample *= 0.5 + 0.5*math.Sin(2*math.Pi*4*t)
			}

			// Right channel slightly quieter, so coupling has a side signal
			if cfg.NumChannels == 2 && ch == 1 {
				sample *= 0.95
			}

			interleaved = append(interleaved, float32(sample))
		}
	}

	enc := wav.NewEncoder(f, cfg.SampleRate, 16, cfg.NumChannels, 1)
	buf := output.NewIntBuffer(cfg.NumChannels, cfg.SampleRate, 16, len(interleaved))
	output.AppendIntBuffer(buf, interleaved)
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
