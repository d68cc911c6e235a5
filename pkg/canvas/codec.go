package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// Annotations travel as an SVG envelope embedding the rasterized drawing as
// a base64 PNG data URI. The envelope carries explicit width/height so a
// reader can size a surface before decoding the pixels.

const dataURIPrefix = "data:image/png;base64,"

// DecodeError reports a vector image that could not be turned back into
// pixels: a missing embedded image reference or corrupt image data.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode vector image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode vector image: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode wraps the surface's pixel content in an SVG envelope. The output is
// a pure function of the surface content and dimensions.
func Encode(s Surface) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image()); err != nil {
		return "", fmt.Errorf("encode surface png: %w", err)
	}
	data := base64.StdEncoding.EncodeToString(buf.Bytes())

	var sb strings.Builder
	fmt.Fprintf(&sb,
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d">`,
		s.Width(), s.Height())
	fmt.Fprintf(&sb, `<image width="%d" height="%d" xlink:href="%s%s"/>`,
		s.Width(), s.Height(), dataURIPrefix, data)
	sb.WriteString(`</svg>`)
	return sb.String(), nil
}

type svgEnvelope struct {
	XMLName xml.Name  `xml:"svg"`
	Width   string    `xml:"width,attr"`
	Height  string    `xml:"height,attr"`
	Image   *svgImage `xml:"image"`
}

type svgImage struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (i *svgImage) href() string {
	for _, a := range i.Attrs {
		if a.Name.Local == "href" {
			return a.Value
		}
	}
	return ""
}

// Decode parses the envelope, decodes the embedded image and draws it onto
// target at origin (0,0), clearing the target first. The pixel decode runs
// off the calling goroutine; the call suspends until it completes, errors,
// or ctx is done. Decode itself imposes no timeout.
func Decode(ctx context.Context, vectorImage string, target Surface) error {
	var env svgEnvelope
	if err := xml.Unmarshal([]byte(vectorImage), &env); err != nil {
		return &DecodeError{Reason: "invalid envelope", Err: err}
	}
	if env.Image == nil {
		return &DecodeError{Reason: "no embedded image reference"}
	}
	href := env.Image.href()
	if href == "" {
		return &DecodeError{Reason: "no embedded image reference"}
	}

	idx := strings.Index(href, "base64,")
	if idx < 0 {
		return &DecodeError{Reason: "embedded image is not a base64 data URI"}
	}
	payload := href[idx+len("base64,"):]

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			done <- result{err: &DecodeError{Reason: "corrupt base64 image data", Err: err}}
			return
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			done <- result{err: &DecodeError{Reason: "unsupported or corrupt image data", Err: err}}
			return
		}
		done <- result{img: img}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		target.Clear()
		target.Draw(res.img)
		return nil
	}
}

// EnvelopeDimensions reads the width/height attributes without decoding the
// embedded pixels. Handy for sizing a surface before a full Decode.
func EnvelopeDimensions(vectorImage string) (width, height int, err error) {
	var env svgEnvelope
	if err := xml.Unmarshal([]byte(vectorImage), &env); err != nil {
		return 0, 0, &DecodeError{Reason: "invalid envelope", Err: err}
	}
	if _, err := fmt.Sscanf(env.Width, "%d", &width); err != nil {
		return 0, 0, &DecodeError{Reason: "missing width attribute", Err: err}
	}
	if _, err := fmt.Sscanf(env.Height, "%d", &height); err != nil {
		return 0, 0, &DecodeError{Reason: "missing height attribute", Err: err}
	}
	return width, height, nil
}
