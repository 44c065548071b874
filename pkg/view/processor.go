package view

import "context"

// ProgressFunc receives processing progress in the range 0-100 with a short stage label.
type ProgressFunc func(percent int, stage string)

// StreamFunc receives partial output chunks as they are produced.
type StreamFunc func(chunk string)

// Input is everything a processor may read. Segments is a copy of the stored
// intermediate snapshot; mutating it has no effect on storage.
type Input struct {
	Content  string
	Segments []Segment

	// Progress and Stream are only set when the processor declares the capability.
	Progress ProgressFunc
	Stream   StreamFunc
}

// Processor turns a document snapshot into the structured result of one view.
type Processor interface {
	Process(ctx context.Context, in Input) (ResultData, error)
}

// Capabilities lists the optional callbacks a processor knows how to use.
type Capabilities struct {
	Progress  bool
	Streaming bool
}

// Capable is implemented by processors that accept optional callbacks.
type Capable interface {
	Capabilities() Capabilities
}

// CapabilitiesOf reports the declared capabilities of p, none when p does not implement Capable.
func CapabilitiesOf(p Processor) Capabilities {
	if c, ok := p.(Capable); ok {
		return c.Capabilities()
	}
	return Capabilities{}
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, in Input) (ResultData, error)

func (f ProcessorFunc) Process(ctx context.Context, in Input) (ResultData, error) {
	return f(ctx, in)
}
