package receipt

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// filenamePrefix is the fixed prefix of every stored receipt image.
const filenamePrefix = "receipt"

// Normalizer validates uploaded bytes, re-encodes them to a canonical
// raster format, bounds their dimensions, and writes the result into the
// artifact store.
type Normalizer struct {
	store        *Store
	maxDimension int
	jpegQuality  int
	retention    time.Duration
}

// NewNormalizer creates a Normalizer writing into store. maxDimension
// bounds the larger image side (0 disables resizing), jpegQuality is the
// re-encode quality for JPEG outputs, and retention is the TTL applied by
// the background sweep triggered on each Normalize call.
func NewNormalizer(store *Store, maxDimension int, jpegQuality int, retention time.Duration) *Normalizer {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 85
	}
	return &Normalizer{
		store:        store,
		maxDimension: maxDimension,
		jpegQuality:  jpegQuality,
		retention:    retention,
	}
}

// Normalize decodes the uploaded bytes, normalizes color and size, and
// writes the image to the store under a collision-resistant generated name.
// The filename hint is used only to choose the output extension; no part of
// it reaches the stored name, which closes the path-traversal vector.
// Decoding happens before any write so a corrupt buffer is never persisted.
// Returns the on-disk path of the stored file.
func (n *Normalizer) Normalize(data []byte, filenameHint string) (string, error) {
	// Evict stale uploads off the request path.
	n.store.Sweep(n.retention)

	img, err := decodeImage(data)
	if err != nil {
		return "", &InvalidImageError{Err: err}
	}

	img = n.boundAndFlatten(img)

	ext := outputExtension(filenameHint)
	filename := fmt.Sprintf("%s_%d_%s%s", filenamePrefix, time.Now().Unix(), uuid.NewString()[:8], ext)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.jpegQuality})
	}
	if err != nil {
		return "", &StorageWriteError{Err: fmt.Errorf("encoding image: %w", err)}
	}

	return n.store.Save(filename, buf.Bytes())
}

// boundAndFlatten redraws the image onto an opaque RGBA canvas, downscaling
// with Catmull-Rom resampling when either dimension exceeds the configured
// maximum. The redraw also normalizes CMYK, greyscale and alpha sources to
// a plain 3-channel image.
func (n *Normalizer) boundAndFlatten(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := width, height
	if n.maxDimension > 0 && (width > n.maxDimension || height > n.maxDimension) {
		if width >= height {
			newWidth = n.maxDimension
			newHeight = height * n.maxDimension / width
		} else {
			newHeight = n.maxDimension
			newWidth = width * n.maxDimension / height
		}
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// decodeImage decodes the buffer, sniffing HEIC/HEIF and PDF content that
// the standard image package cannot handle. PDFs render as their first
// page; receipts are normally single page.
func decodeImage(data []byte) (image.Image, error) {
	switch {
	case isHEIC(data):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	case isPDF(data):
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF: %w", err)
		}
		defer doc.Close()
		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// isHEIC checks for the ftyp box brands HEIC/HEIF containers start with.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// outputExtension chooses the stored file's extension from the upload's
// declared name. Extensions on the allow-list keep their raster form;
// HEIC/HEIF, WebP and PDF inputs are always re-encoded to JPEG (Go has no
// WebP encoder, and the store must never contain HEIC files). Anything
// unrecognized or missing defaults to JPEG.
func outputExtension(filenameHint string) string {
	switch strings.ToLower(filepath.Ext(filenameHint)) {
	case ".jpg":
		return ".jpg"
	case ".jpeg":
		return ".jpeg"
	case ".png":
		return ".png"
	default:
		return ".jpg"
	}
}
