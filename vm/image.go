package vm

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Program images: compiled programs serialized as CBOR
// ---------------------------------------------------------------------------

// ImageMagic prefixes every program image.
var ImageMagic = []byte("RZN\x00")

// ImageVersion is the current image format version.
const ImageVersion = 1

type image struct {
	Version int      `cbor:"1,keyasint"`
	Program *Program `cbor:"2,keyasint"`
}

var imageEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em
}

// MarshalProgram serializes p to an image. The encoding is deterministic.
func MarshalProgram(p *Program) ([]byte, error) {
	body, err := imageEncMode.Marshal(image{Version: ImageVersion, Program: p})
	if err != nil {
		return nil, fmt.Errorf("vm: marshal program: %w", err)
	}
	return append(append([]byte{}, ImageMagic...), body...), nil
}

// UnmarshalProgram deserializes an image and validates the program.
func UnmarshalProgram(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, ImageMagic) {
		return nil, fmt.Errorf("vm: not a program image")
	}
	var img image
	if err := cbor.Unmarshal(data[len(ImageMagic):], &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal program: %w", err)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("vm: unsupported image version %d", img.Version)
	}
	if img.Program == nil {
		return nil, fmt.Errorf("vm: image has no program")
	}
	if err := img.Program.Validate(); err != nil {
		return nil, fmt.Errorf("vm: invalid program: %w", err)
	}
	return img.Program, nil
}
