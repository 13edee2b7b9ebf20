// Command pasr duplicates each pixel of MRC, TIFF and JPEG images or
// frame stacks, the pre-processing step for cryo-EM data described in:
//
//	Burton-Smith, R. N. & Murata, K. (2023) "Post acquisition super
//	resolution for cryo-electron microscopy." bioRxiv.
//	doi: https://doi.org/10.1101/2023.06.09.544325
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/rbs-sci/PASR/contracts"
	"github.com/rbs-sci/PASR/converter"
	"github.com/rbs-sci/PASR/files_manager"
	"github.com/rbs-sci/PASR/term"
)

type cliOptions struct {
	Scale        int    `short:"s" long:"scale" choice:"2" choice:"3" choice:"4" default:"2" description:"Scaling factor (number of times to duplicate each pixel)"`
	Output       string `short:"o" long:"output" description:"Output MRC, TIF, or TIFF file, or directory to store processed files."`
	Compression  string `short:"c" long:"compression" choice:"zlib" choice:"lzw" default:"lzw" description:"Compression algorithm for TIF output."`
	NCores       int    `short:"n" long:"n_cores" description:"Number of CPU cores to use for parallel processing."`
	KeepBasename bool   `short:"k" long:"keep_basename" description:"Keep the original basename for the output file(s); do not append _PASR_{scale}x."`
	FlipTIF      *bool  `long:"flip_tif" description:"Option to flip TIF output across the x-axis. Default is True for MRC/MRCS input and TIF/TIFF output, False otherwise, unless specified."`
	ForceTIF     bool   `long:"force_tif" description:"Force the output file extension to be .tif. This is useful because .tif output uses ZLIB or LZW compression."`
	ForceMRC     bool   `long:"force_mrc" description:"Force the output file extension to be .mrc. This exists just for completion."`
	ForceJPG     bool   `long:"force_jpg" description:"Force the output file extension to be .jpg for 2D images. This exists just for fun."`

	Args struct {
		Input string `positional-arg-name:"input" description:"Input MRC, MRCS, TIF, TIFF, or JPG file, or directory containing such files."`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	cli := cliOptions{NCores: runtime.NumCPU()}
	parser := flags.NewParser(&cli, flags.Default)
	parser.LongDescription = "PASR Pre-process MRC and TIF frame stacks and MRC, TIF, and JPG images."
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	term.Configure()

	opts := contracts.Options{
		Input:        cli.Args.Input,
		Output:       cli.Output,
		Scale:        cli.Scale,
		Compression:  contracts.Compression(cli.Compression),
		NCores:       cli.NCores,
		KeepBasename: cli.KeepBasename,
		FlipTIF:      cli.FlipTIF,
		ForceTIF:     cli.ForceTIF,
		ForceMRC:     cli.ForceMRC,
		ForceJPG:     cli.ForceJPG,
	}
	if err := opts.Validate(); err != nil {
		term.Errorf("%v", err)
		os.Exit(2)
	}

	if files_manager.IsDir(opts.Input) {
		os.Exit(runBatch(opts))
	}
	os.Exit(runSingle(opts))
}

func runSingle(opts contracts.Options) int {
	outputPath := files_manager.ResolveFilePath(opts.Input, opts)
	if files_manager.SamePath(opts.Input, outputPath) {
		if !confirmOverwrite("Warning: Your input and output files are the same. This will overwrite your file. Continue? [y/N]") {
			return 0
		}
	}

	result := converter.ProcessJob(contracts.Job{
		InputPath:   opts.Input,
		OutputPath:  outputPath,
		Scale:       opts.Scale,
		Compression: opts.Compression,
		Flip:        files_manager.ResolveFlip(opts.Input, outputPath, opts.FlipTIF),
	})
	report(result)
	if result.Err != nil {
		return 1
	}
	return 0
}

func runBatch(opts contracts.Options) int {
	if err := files_manager.EnsureOutputDir(opts.Output); err != nil {
		term.Errorf("%v", err)
		return 1
	}
	if files_manager.SamePath(opts.Input, opts.Output) {
		if !confirmOverwrite("Warning: Your input and output directories are the same. This will overwrite your files. Continue? [y/N]") {
			return 0
		}
	}

	jobs, totalSize, err := files_manager.BuildJobs(opts.Input, opts)
	if err != nil {
		term.Errorf("%v", err)
		return 1
	}
	if len(jobs) == 0 {
		term.Warnf("No files found in %s", opts.Input)
		return 0
	}

	term.Infof("Processing %d files (%s) on %d cores...", len(jobs), humanSize(totalSize), opts.NCores)

	start := time.Now()
	results := converter.ProcessDirectory(jobs, opts.NCores, report)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		term.Errorf("%d of %d files failed.", failed, len(results))
		return 1
	}
	term.Infof("Processed %d files in %s.", len(results), time.Since(start).Round(time.Millisecond))
	return 0
}

func report(r contracts.Result) {
	if r.Err != nil {
		term.Errorf("%s: %v", r.Job.InputPath, r.Err)
		return
	}
	term.Successf("%s", r.Note)
}

func confirmOverwrite(prompt string) bool {
	return term.Confirm(os.Stdin, term.Yellow+prompt+term.NC+" ")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
