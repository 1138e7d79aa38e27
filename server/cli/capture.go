package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/backend"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/command"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/multierr"
	"github.com/peer-calls/mediatrack/server/track"
	"github.com/spf13/pflag"
)

type captureHandler struct {
	args struct {
		config  string
		maxSize int
		quality float64
		target  string
		flash   string
		timeout time.Duration
	}

	log logger.Logger
}

func (h *captureHandler) RegisterFlags(c *command.Command, flags *pflag.FlagSet) {
	flags.StringVarP(&h.args.config, "config", "c", "", "config file to use")
	flags.IntVar(&h.args.maxSize, "max-size", 0, "maximum width or height of the photo (default from config)")
	flags.Float64Var(&h.args.quality, "quality", -1, "JPEG quality between 0 and 1 (default from config)")
	flags.StringVarP(&h.args.target, "target", "t", "", "capture target: memory, disk, cameraRoll or temp (default from config)")
	flags.StringVar(&h.args.flash, "flash", "", "switch the flash off or on before capturing")
	flags.DurationVar(&h.args.timeout, "timeout", 10*time.Second, "how long to wait for the photo")
}

func (h *captureHandler) options() *capture.CaptureOptions {
	var opts capture.CaptureOptions

	if h.args.maxSize > 0 {
		opts.MaxSize = capture.Int(h.args.maxSize)
	}

	if h.args.quality >= 0 {
		opts.MaxJPEGQuality = capture.Float64(h.args.quality)
	}

	if h.args.target != "" {
		opts.CaptureTarget = capture.TargetPtr(capture.Target(h.args.target))
	}

	return &opts
}

// Handle opens a camera on the loopback backend, takes a single photo and
// prints the result.
func (h *captureHandler) Handle(ctx context.Context, args []string) error {
	c, err := readConfig(h.log, h.args.config)
	if err != nil {
		return errors.Trace(err)
	}

	loopback := backend.NewLoopback(backend.LoopbackParams{
		Log:     h.log,
		Dir:     c.Backend.Loopback.Dir,
		TempDir: c.Backend.Loopback.TempDir,
	})

	tracks, err := server.NewTracksManager(h.log, loopback, c.Capture)
	if err != nil {
		_ = loopback.Close()

		return errors.Trace(err)
	}

	var errs multierr.MultiErr

	result, err := h.capture(ctx, tracks, loopback.Open(track.KindVideo, "loopback camera"))
	errs.Add(err)
	errs.Add(tracks.Close())

	if err := errs.Err(); err != nil {
		return errors.Trace(err)
	}

	_, err = fmt.Fprintln(command.Stdout(ctx), result)

	return errors.Trace(err)
}

func (h *captureHandler) capture(ctx context.Context, tracks *server.TracksManager, info track.Info) (string, error) {
	state, err := tracks.Add(info)
	if err != nil {
		return "", errors.Trace(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.args.timeout)
	defer cancel()

	if h.args.flash != "" {
		mode, err := capture.ParseFlashMode(h.args.flash)
		if err != nil {
			return "", errors.Trace(err)
		}

		_, err = tracks.SwitchFlash(ctx, state.ID, &capture.FlashOptions{
			FlashMode: &mode,
		})
		if err != nil {
			return "", errors.Annotate(err, "switch flash")
		}
	}

	result, err := tracks.CapturePhoto(ctx, state.ID, h.options())

	return result, errors.Annotate(err, "capture photo")
}

func newCaptureCmd(props Props) *command.Command {
	h := &captureHandler{
		log: props.Log,
	}

	return command.New(command.Params{
		Name:         "capture",
		Desc:         "Captures a photo from the loopback camera and prints it",
		FlagRegistry: h,
		Handler:      h,
	})
}
