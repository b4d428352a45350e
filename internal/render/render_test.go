package render

import (
	"context"
	"errors"
	"image/gif"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/integrators"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

var quiet = log.New(io.Discard)

func shortRun() *dynamo.Trajectory {
	cfg := dynamo.DefaultConfig()
	cfg.Duration = 0.1
	traj, err := dynamo.New(physics.NewElasticPendulum(), integrators.NewRK45()).
		Run(context.Background(), physics.InitialState(3*math.Pi/4, 0, 1, 0), cfg)
	Expect(err).NotTo(HaveOccurred())
	return traj
}

func smallRenderer(dir string) *FrameRenderer {
	r := NewFrameRenderer(dir, 20)
	r.DPI = 32
	r.Size = 2 * vg.Inch
	r.Logger = quiet
	return r
}

var _ = Describe("FrameRenderer", func() {
	It("shows one frame per 1/fps seconds", func() {
		r := NewFrameRenderer("", 20)
		Expect(r.Stride(0.01)).To(Equal(5))
		Expect(r.Stride(0.05)).To(Equal(1))
		Expect(r.Stride(0.5)).To(Equal(1))
		r.FPS = 25
		Expect(r.Stride(0.001)).To(Equal(40))
	})

	It("writes numbered frames into a new directory", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "frames")
		traj := shortRun()
		Expect(traj.Len()).To(Equal(11))

		n, err := smallRenderer(dir).RenderFrames(context.Background(), traj)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		for _, name := range []string{"0000.png", "0001.png", "0002.png"} {
			f, err := os.Open(filepath.Join(dir, name))
			Expect(err).NotTo(HaveOccurred())
			img, err := png.Decode(f)
			f.Close()
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(64))
			Expect(img.Bounds().Dy()).To(Equal(64))
		}
		Expect(filepath.Join(dir, "0003.png")).NotTo(BeAnExistingFile())
	})

	It("drops frames left over from a longer render", func() {
		dir := GinkgoT().TempDir()
		r := smallRenderer(dir)

		cfg := dynamo.DefaultConfig()
		cfg.Duration = 0.5
		long, err := dynamo.New(physics.NewElasticPendulum(), integrators.NewRK45()).
			Run(context.Background(), physics.InitialState(3*math.Pi/4, 0, 1, 0), cfg)
		Expect(err).NotTo(HaveOccurred())
		n, err := r.RenderFrames(context.Background(), long)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(11))

		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "cover.png"), nil, 0o644)).To(Succeed())

		n, err = r.RenderFrames(context.Background(), shortRun())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		Expect(filepath.Join(dir, "0002.png")).To(BeAnExistingFile())
		for _, name := range []string{"0003.png", "0010.png"} {
			Expect(filepath.Join(dir, name)).NotTo(BeAnExistingFile())
		}
		Expect(filepath.Join(dir, "notes.txt")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "cover.png")).To(BeAnExistingFile())

		out := filepath.Join(GinkgoT().TempDir(), "short.gif")
		Expect(NativeGIF(dir, out, 20)).To(Succeed())
		f, err := os.Open(out)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		anim, err := gif.DecodeAll(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(anim.Image).To(HaveLen(3))
	})

	DescribeTable("recognises frame names",
		func(name string, idx int, ok bool) {
			got, found := frameIndex(name)
			Expect(found).To(Equal(ok))
			if ok {
				Expect(got).To(Equal(idx))
			}
		},
		Entry("first", "0000.png", 0, true),
		Entry("wide", "12345.png", 12345, true),
		Entry("short", "12.png", 0, false),
		Entry("signed", "+001.png", 0, false),
		Entry("other", "summary.png", 0, false),
		Entry("not png", "0001.jpg", 0, false),
	)

	It("stops on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		n, err := smallRenderer(GinkgoT().TempDir()).RenderFrames(ctx, shortRun())
		Expect(err).To(MatchError(context.Canceled))
		Expect(n).To(Equal(0))
	})

	It("reports a png that could not be written", func() {
		if _, err := os.Stat("/dev/full"); err != nil {
			Skip("no /dev/full on this system")
		}
		err := savePNG("/dev/full", vg.Inch, vg.Inch, 32, func(draw.Canvas) {})
		Expect(err).To(HaveOccurred())
	})

	It("captions the state in degrees", func() {
		text := captionText(physics.InitialState(math.Pi/2, math.Pi, 1.25, -0.5), 1.5)
		Expect(text).To(ContainSubstring("Time 1.50 s"))
		Expect(text).To(ContainSubstring("θ = 90.00°"))
		Expect(text).To(ContainSubstring("dθ/dt = 180.00°/s"))
		Expect(text).To(ContainSubstring("l = 1.25 m"))
		Expect(text).To(ContainSubstring("dl/dt = -0.50 m/s"))
	})
})

var _ = Describe("Summary", func() {
	It("writes a single figure", func() {
		out := filepath.Join(GinkgoT().TempDir(), "summary.png")
		s := NewSummary()
		s.DPI = 24

		Expect(s.Save(out, shortRun(), physics.NewElasticPendulum())).To(Succeed())

		f, err := os.Open(out)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		img, err := png.Decode(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds().Dx()).To(Equal(13 * 24))
		Expect(img.Bounds().Dy()).To(Equal(150))
	})

	It("lists the parameters", func() {
		text := ParamText(physics.InitialState(2.356, 0, 1, 0), physics.NewElasticPendulum())
		Expect(text).To(ContainSubstring("k = 50 N/m"))
		Expect(text).To(ContainSubstring("m = 2 kg"))
		Expect(text).To(ContainSubstring("l0 = 1 m"))
		Expect(text).To(ContainSubstring("θ0 = 2.36 rad"))
	})
})

type ffmpegCall struct {
	name string
	args []string
}

var _ = Describe("Encoder", func() {
	var (
		framesDir string
		outDir    string
		calls     []ffmpegCall
		runErr    error
		origLook  func(string) (string, error)
		origRun   func(context.Context, string, ...string) ([]byte, error)
		enc       *Encoder
	)

	BeforeEach(func() {
		framesDir = filepath.Join(GinkgoT().TempDir(), "frames")
		outDir = GinkgoT().TempDir()
		_, err := smallRenderer(framesDir).RenderFrames(context.Background(), shortRun())
		Expect(err).NotTo(HaveOccurred())

		calls = nil
		runErr = nil
		origLook, origRun = ffmpegLookPath, ffmpegRun
		ffmpegLookPath = func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		}
		ffmpegRun = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, ffmpegCall{name, args})
			if runErr != nil {
				return []byte("frame=    0\nConversion failed!"), runErr
			}
			return nil, nil
		}
		enc = NewEncoder(20)
		enc.Logger = quiet
	})

	AfterEach(func() {
		ffmpegLookPath, ffmpegRun = origLook, origRun
	})

	It("makes a gif in two palette passes", func() {
		out := filepath.Join(outDir, "out.gif")
		palette := filepath.Join(outDir, "palette.png")
		input := filepath.Join(framesDir, "%04d.png")

		Expect(enc.Encode(context.Background(), framesDir, out)).To(Succeed())
		Expect(calls).To(HaveLen(2))
		Expect(calls[0].name).To(Equal("/usr/bin/ffmpeg"))
		Expect(calls[0].args).To(Equal([]string{"-i", input, "-vf", "palettegen", palette, "-y"}))
		Expect(calls[1].args).To(Equal([]string{
			"-thread_queue_size", "1024", "-framerate", "20", "-i", input,
			"-i", palette, "-lavfi", "paletteuse", out, "-y",
		}))
	})

	It("uses a configured palette path", func() {
		enc.Palette = filepath.Join(outDir, "pal.png")
		Expect(enc.Encode(context.Background(), framesDir, filepath.Join(outDir, "a.GIF"))).To(Succeed())
		Expect(calls[0].args).To(ContainElement(enc.Palette))
	})

	It("encodes other containers in one pass", func() {
		out := filepath.Join(outDir, "out.webp")

		Expect(enc.Encode(context.Background(), framesDir, out)).To(Succeed())
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].args).To(Equal([]string{
			"-framerate", "20", "-i", filepath.Join(framesDir, "%04d.png"), "-loop", "0", "-y", out,
		}))
	})

	It("reports a missing ffmpeg", func() {
		ffmpegLookPath = func(string) (string, error) { return "", errors.New("not in PATH") }

		err := enc.Encode(context.Background(), framesDir, filepath.Join(outDir, "out.gif"))
		Expect(err).To(MatchError(ErrEncoderMissing))
		Expect(calls).To(BeEmpty())
	})

	It("surfaces a failing pass and keeps the frames", func() {
		runErr = errors.New("exit status 1")

		err := enc.Encode(context.Background(), framesDir, filepath.Join(outDir, "out.gif"))
		Expect(err).To(MatchError(ErrEncoding))

		var encErr *EncodeError
		Expect(errors.As(err, &encErr)).To(BeTrue())
		Expect(encErr.Stage).To(Equal("palettegen"))
		Expect(encErr.ExitCode).To(Equal(-1))
		Expect(encErr.Output).To(ContainSubstring("Conversion failed!"))
		Expect(err.Error()).To(ContainSubstring("Conversion failed!"))
		Expect(calls).To(HaveLen(1))

		Expect(filepath.Join(framesDir, "0000.png")).To(BeAnExistingFile())
	})

	It("refuses an empty frames directory", func() {
		err := enc.Encode(context.Background(), GinkgoT().TempDir(), filepath.Join(outDir, "out.mp4"))
		Expect(err).To(MatchError(ErrEncoding))
		Expect(calls).To(BeEmpty())
	})

	It("can assemble a gif without ffmpeg", func() {
		out := filepath.Join(outDir, "native.gif")
		Expect(NativeGIF(framesDir, out, 20)).To(Succeed())

		f, err := os.Open(out)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		anim, err := gif.DecodeAll(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(anim.Image).To(HaveLen(3))
		Expect(anim.Delay).To(Equal([]int{5, 5, 5}))
	})
})
