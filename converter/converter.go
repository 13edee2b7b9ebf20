// Package converter is the processing core: it decodes one input file,
// scales it by pixel replication, and encodes the result under the
// output format's rules. Failures are values on the returned Result;
// nothing here prints or exits.
package converter

import (
	"github.com/rbs-sci/PASR/contracts"
)

// ProcessJob runs one fully resolved conversion. Every failure is
// terminal for the job; the caller decides what it means for siblings.
func ProcessJob(job contracts.Job) contracts.Result {
	note, err := convert(job)
	return contracts.Result{Job: job, Note: note, Err: err}
}

func convert(job contracts.Job) (string, error) {
	// Both extensions are checked before any file is touched, so a
	// doomed job never gets to read pixels.
	dec, ok := codecs[contracts.FormatForPath(job.InputPath)]
	if !ok {
		return "", contracts.ErrUnsupportedInputFormat
	}
	enc, ok := codecs[contracts.FormatForPath(job.OutputPath)]
	if !ok {
		return "", contracts.ErrUnsupportedOutputFormat
	}

	s, err := dec.Decode(job.InputPath)
	if err != nil {
		return "", err
	}
	if s.Rank != 2 && s.Rank != 3 {
		return "", contracts.ErrInvalidDimensions
	}

	return enc.Encode(job.OutputPath, s.Scale(job.Scale), job)
}
