package analysis

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
)

// Fingerprint returns a content hash of the image's pixels. It is the cache
// and persistence key for CompositionData: a changed image yields a new
// fingerprint, and reloads across process restarts rehash to the same value.
func Fingerprint(img image.Image) string {
	h := sha256.New()

	bounds := img.Bounds()
	var dims [16]byte
	binary.BigEndian.PutUint32(dims[0:], uint32(bounds.Min.X))
	binary.BigEndian.PutUint32(dims[4:], uint32(bounds.Min.Y))
	binary.BigEndian.PutUint32(dims[8:], uint32(bounds.Dx()))
	binary.BigEndian.PutUint32(dims[12:], uint32(bounds.Dy()))
	h.Write(dims[:])

	var px [8]byte
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			binary.BigEndian.PutUint16(px[0:], uint16(r))
			binary.BigEndian.PutUint16(px[2:], uint16(g))
			binary.BigEndian.PutUint16(px[4:], uint16(b))
			binary.BigEndian.PutUint16(px[6:], uint16(a))
			h.Write(px[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
