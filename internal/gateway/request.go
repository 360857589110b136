package gateway

import (
	"context"
	"path/filepath"
	"strings"
)

// Op names an external image or document operation.
type Op string

const (
	OpIdentify   Op = "identify"
	OpDeskew     Op = "deskew"
	OpTrim       Op = "trim"
	OpExtent     Op = "extent"
	OpHistogram  Op = "histogram"
	OpMonochrome Op = "monochrome"
	OpStatistics Op = "statistics"
	OpBlankTrim  Op = "blank_trim"
	OpDespeckle  Op = "despeckle"
	OpEncodePage Op = "encode_page"
	OpCombine    Op = "combine"
	OpTextLayer  Op = "text_layer"
	OpAcquire    Op = "acquire"
	OpSyslog     Op = "syslog"
)

// Gateway is the single integration point with external tools. Invoke
// returns the captured output of the operation or an error, which is a
// *scanerr.ExternalToolFailure when the tool itself failed.
type Gateway interface {
	Invoke(ctx context.Context, req Request) ([]byte, error)
}

// Request is a typed operation invocation.
type Request interface {
	Operation() Op
	// Output is the artifact the operation writes, or "" when it only
	// reports on its input.
	Output() string
}

// Identify queries the pixel dimensions of an image, printed as "W H".
type Identify struct {
	Input string
}

// Deskew straightens a scanned page.
type Deskew struct {
	Input, Out string
}

// Trim removes the uniform border around the page content.
type Trim struct {
	Input, Out  string
	FuzzPercent int
}

// Extent pads an image back to a fixed size, centered on Background.
type Extent struct {
	Input, Out    string
	Width, Height int
	Background    string
}

// Histogram reports a reduced-palette color histogram of the image.
type Histogram struct {
	Input  string
	Colors int
	Depth  int
}

// Monochrome converts the page into a normalized two-level grayscale image.
type Monochrome struct {
	Input, Out string
}

// Statistics prints verbose image statistics including channel
// standard deviations.
type Statistics struct {
	Input string
}

// BlankTrim shaves, blurs and trims the page and reports the residual
// content dimensions as "W H".
type BlankTrim struct {
	Input        string
	ShavePercent int
	FuzzPercent  int
	BlurSigma    int
}

// Despeckle runs the scan cleanup tool over the page.
type Despeckle struct {
	Input, Out string
}

// EncodePage writes the page as a single-page PDF.
type EncodePage struct {
	Input, Out string
	DPI        int
	Monochrome bool
	Quality    int
	Rotate     int
}

// Combine concatenates single-page PDFs into one document, in order.
type Combine struct {
	Inputs []string
	Out    string
	DPI    int
}

// TextLayer injects an OCR text layer. The tool writes its result next to
// the input with an "_ocr" suffix.
type TextLayer struct {
	Input string
}

// Acquire drives the duplex feeder, depositing numbered raw pages into Dir.
type Acquire struct {
	Device string
	DPI    int
	Dir    string
}

// Syslog writes a tagged marker line to the system log.
type Syslog struct {
	Tag, Message string
}

func (Identify) Operation() Op   { return OpIdentify }
func (Deskew) Operation() Op     { return OpDeskew }
func (Trim) Operation() Op       { return OpTrim }
func (Extent) Operation() Op     { return OpExtent }
func (Histogram) Operation() Op  { return OpHistogram }
func (Monochrome) Operation() Op { return OpMonochrome }
func (Statistics) Operation() Op { return OpStatistics }
func (BlankTrim) Operation() Op  { return OpBlankTrim }
func (Despeckle) Operation() Op  { return OpDespeckle }
func (EncodePage) Operation() Op { return OpEncodePage }
func (Combine) Operation() Op    { return OpCombine }
func (TextLayer) Operation() Op  { return OpTextLayer }
func (Acquire) Operation() Op    { return OpAcquire }
func (Syslog) Operation() Op     { return OpSyslog }

func (Identify) Output() string     { return "" }
func (r Deskew) Output() string     { return r.Out }
func (r Trim) Output() string       { return r.Out }
func (r Extent) Output() string     { return r.Out }
func (Histogram) Output() string    { return "" }
func (r Monochrome) Output() string { return r.Out }
func (Statistics) Output() string   { return "" }
func (BlankTrim) Output() string    { return "" }
func (r Despeckle) Output() string  { return r.Out }
func (r EncodePage) Output() string { return r.Out }
func (r Combine) Output() string    { return r.Out }
func (r TextLayer) Output() string  { return OCROutputPath(r.Input) }
func (Acquire) Output() string      { return "" }
func (Syslog) Output() string       { return "" }

// OCROutputPath returns where the text-layer tool writes its result for input.
func OCROutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_ocr" + ext
}
