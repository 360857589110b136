package gateway

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Tools names the executables behind each operation family.
type Tools struct {
	Deskew      string
	Convert     string
	Identify    string
	Unpaper     string
	Ghostscript string
	PdfSandwich string
	Scanadf     string
	Logger      string
}

// DefaultTools returns the executables looked up on PATH.
func DefaultTools() Tools {
	return Tools{
		Deskew:      "deskew",
		Convert:     "convert",
		Identify:    "identify",
		Unpaper:     "unpaper",
		Ghostscript: "gs",
		PdfSandwich: "pdfsandwich",
		Scanadf:     "scanadf",
		Logger:      "logger",
	}
}

// command maps a typed request onto an executable and its flat argument list.
func (t Tools) command(req Request) (string, []string, error) {
	switch r := req.(type) {
	case Identify:
		return t.Identify, []string{"-format", "%w %h", r.Input}, nil
	case Deskew:
		return t.Deskew, []string{"-o", r.Out, r.Input}, nil
	case Trim:
		return t.Convert, []string{"-fuzz", percent(r.FuzzPercent), "-trim", "+repage", r.Input, r.Out}, nil
	case Extent:
		bg := r.Background
		if bg == "" {
			bg = "white"
		}
		return t.Convert, []string{r.Input, "-background", bg, "-gravity", "center",
			"-extent", fmt.Sprintf("%dx%d", r.Width, r.Height), r.Out}, nil
	case Histogram:
		return t.Convert, []string{r.Input, "-colors", strconv.Itoa(r.Colors), "-depth", strconv.Itoa(r.Depth),
			"-format", "%c", "histogram:info:-"}, nil
	case Monochrome:
		return t.Convert, []string{r.Input, "+dither", "-colors", "2", "-colorspace", "gray", "-normalize", r.Out}, nil
	case Statistics:
		return t.Identify, []string{"-verbose", r.Input}, nil
	case BlankTrim:
		shave := percent(r.ShavePercent)
		return t.Convert, []string{r.Input, "-shave", shave + "x" + shave, "-blur", fmt.Sprintf("0x%d", r.BlurSigma),
			"-fuzz", percent(r.FuzzPercent), "-trim", "-format", "%w %h", "info:"}, nil
	case Despeckle:
		return t.Unpaper, []string{r.Input, r.Out}, nil
	case EncodePage:
		args := []string{r.Input}
		if r.Rotate != 0 {
			args = append(args, "-rotate", strconv.Itoa(r.Rotate))
		}
		args = append(args, "-units", "PixelsPerInch", "-density", strconv.Itoa(r.DPI))
		if r.Monochrome {
			args = append(args, "-type", "bilevel", "-compress", "Group4")
		} else {
			args = append(args, "-sampling-factor", "4:2:0", "-quality", strconv.Itoa(r.Quality), "-compress", "JPEG")
		}
		return t.Convert, append(args, "pdf:"+r.Out), nil
	case Combine:
		if len(r.Inputs) == 0 {
			return "", nil, fmt.Errorf("combine: no input pages")
		}
		args := []string{"-q", "-dNOPAUSE", "-dBATCH", "-dSAFER", "-sDEVICE=pdfwrite",
			"-dPDFSETTINGS=/prepress", fmt.Sprintf("-r%d", r.DPI), "-sOutputFile=" + r.Out}
		return t.Ghostscript, append(args, r.Inputs...), nil
	case TextLayer:
		return t.PdfSandwich, []string{"-coo", "-deskew 40%", r.Input}, nil
	case Acquire:
		return t.Scanadf, []string{
			"-d", r.Device,
			"--source", "ADF Duplex",
			"--mode", "Color",
			"--resolution", fmt.Sprintf("%ddpi", r.DPI),
			"-o", filepath.Join(r.Dir, "page_%04d"),
			"-y", "279.364",
			"--page-height", "279.364",
		}, nil
	case Syslog:
		return t.Logger, []string{"-t", r.Tag, r.Message}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operation %T", req)
	}
}

func percent(n int) string { return strconv.Itoa(n) + "%" }
