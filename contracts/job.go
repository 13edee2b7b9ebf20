package contracts

// Job is one fully resolved conversion: where to read, where to write,
// and every knob the processor needs. Jobs are built before any pixel
// work starts so a batch can be handed to workers as plain values.
type Job struct {
	InputPath   string
	OutputPath  string
	Scale       int
	Compression Compression
	Flip        bool
}

// Result reports one finished job. Err is nil on success and Note
// carries the summary line for the presentation layer.
type Result struct {
	Job  Job
	Note string
	Err  error
}
