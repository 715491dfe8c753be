// Command oggdec decodes Ogg Vorbis files to 16-bit WAV.
//
//	oggdec [-o dir] [-j n] [-v] file.ogg...
//
// Each input is written next to itself, or into -o, with a .wav extension.
// A chained file whose later streams change channel count or sample rate
// is split: the streams after each change go to name-2.wav, name-3.wav and
// so on.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-audio/wav"
	vorbis "github.com/llehouerou/go-vorbis"
	"github.com/llehouerou/go-vorbis/internal/output"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const bitDepth = 16

func main() {
	outDir := flag.String("o", "", "output directory (default: next to each input)")
	jobs := flag.Int("j", runtime.NumCPU(), "files decoded in parallel")
	verbose := flag.Bool("v", false, "log stream details and damaged packets")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: oggdec [-o dir] [-j n] [-v] file.ogg...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(log, flag.Args(), *outDir, *jobs); err != nil {
		log.WithError(err).Error("oggdec failed")
		os.Exit(1)
	}
}

// run decodes every input, at most jobs at a time. All inputs are
// attempted; the first error is returned.
func run(log logrus.FieldLogger, inputs []string, outDir string, jobs int) error {
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			l := log.WithField("file", in)
			if err := decodeFile(l, in, outputPath(in, outDir, 1)); err != nil {
				l.WithError(err).Error("decode failed")
				return errors.Wrapf(err, "%s", in)
			}
			return nil
		})
	}
	return g.Wait()
}

// outputPath names the WAV file for the part'th format section of in.
func outputPath(in, outDir string, part int) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if part > 1 {
		base = fmt.Sprintf("%s-%d", base, part)
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, base+".wav")
}

func decodeFile(log logrus.FieldLogger, in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg := vorbis.DefaultConfig()
	cfg.Logger = log
	r, err := vorbis.NewReader(f, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	outDir := filepath.Dir(out)
	part := 1
	for {
		w, err := newWAVWriter(out, r.Channels(), r.SampleRate())
		if err != nil {
			return err
		}
		frames, err := w.copyFrom(r)
		if cerr := w.Close(); cerr != nil && (err == nil || err == vorbis.ErrFormatChange) {
			return cerr
		}
		l := log.WithFields(logrus.Fields{"out": out, "frames": frames})
		if err != vorbis.ErrFormatChange {
			if err == nil {
				s := r.Decoder().Stats()
				l = l.WithFields(logrus.Fields{
					"packets": s.AudioPackets,
					"corrupt": s.CorruptPackets,
					"resyncs": s.Resyncs,
					"clipped": r.Clipped(),
				})
			}
			l.Info("decoded")
			return err
		}
		l.Info("format changed, splitting output")
		part++
		out = outputPath(in, outDir, part)
	}
}

// wavWriter converts decoded float samples to 16-bit WAV.
type wavWriter struct {
	f   *os.File
	enc *wav.Encoder
	buf []float32
}

func newWAVWriter(path string, channels, rate int) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &wavWriter{
		f:   f,
		enc: wav.NewEncoder(f, rate, bitDepth, channels, 1),
		buf: make([]float32, 4096*channels),
	}, nil
}

// copyFrom writes samples from r until the input ends or its format
// changes. It returns the number of frames written and nil at the end of
// the input.
func (w *wavWriter) copyFrom(r *vorbis.Reader) (int64, error) {
	channels := r.Channels()
	pcm := output.NewIntBuffer(channels, r.SampleRate(), bitDepth, len(w.buf))
	var frames int64
	for {
		n, err := r.Read(w.buf)
		if n > 0 {
			pcm.Data = pcm.Data[:0]
			output.AppendIntBuffer(pcm, w.buf[:n])
			if werr := w.enc.Write(pcm); werr != nil {
				return frames, errors.Wrap(werr, "writing wav")
			}
			frames += int64(n / channels)
		}
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
	}
}

// Close finishes the WAV header and closes the file.
func (w *wavWriter) Close() error {
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "closing wav")
}
