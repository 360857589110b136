package scanjob

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/gateway"
)

// syslogTag matches what scanbd watches for.
const syslogTag = "scanbd: "

// acquire runs the feeder scan into the working directory, bracketed by
// syslog markers.
func (j *Job) acquire(ctx context.Context) error {
	j.syslog(ctx, "Begin of scan ")
	log.Info().Str("device", j.cfg.Device).Int("dpi", j.cfg.DPI).Msg("scanning")
	_, err := j.deps.Gateway.Invoke(ctx, gateway.Acquire{Device: j.cfg.Device, DPI: j.cfg.DPI, Dir: j.workDir})
	j.syslog(ctx, "End of scan ")
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(j.workDir)
	if err != nil {
		return err
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	log.Info().Int("files", n).Str("dir", j.workDir).Msg("received scanned pages")
	return nil
}

func (j *Job) syslog(ctx context.Context, msg string) {
	if _, err := j.deps.Gateway.Invoke(ctx, gateway.Syslog{Tag: syslogTag, Message: msg}); err != nil {
		log.Warn().Err(err).Msg("could not write syslog marker")
	}
}
