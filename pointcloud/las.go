package pointcloud

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lastiler/geometry"
)

// LAS public header block. LAZ files start with the same uncompressed header,
// which is why both formats are inspected the same way.
//
// Layout of versions 1.0 to 1.2 (227 bytes). Version 1.3 appends the start of
// the waveform data and 1.4 the extended variable length records and 64-bit
// point counts.
type lasHeader struct {
	Signature          [4]byte
	FileSourceID       uint16
	GlobalEncoding     uint16
	ProjectID          [16]byte
	VersionMajor       uint8
	VersionMinor       uint8
	SystemIdentifier   [32]byte
	GeneratingSoftware [32]byte
	CreationDay        uint16
	CreationYear       uint16
	HeaderSize         uint16
	OffsetToPointData  uint32
	NumberOfVLRs       uint32
	PointFormat        uint8
	PointRecordLength  uint16
	LegacyPointCount   uint32
	LegacyPointsByRet  [5]uint32
	ScaleX             float64
	ScaleY             float64
	ScaleZ             float64
	OffsetX            float64
	OffsetY            float64
	OffsetZ            float64
	MaxX               float64
	MinX               float64
	MaxY               float64
	MinY               float64
	MaxZ               float64
	MinZ               float64
}

type lasHeader14 struct {
	StartOfWaveform uint64
	StartOfEVLRs    uint64
	NumberOfEVLRs   uint32
	PointCount      uint64
	PointsByReturn  [15]uint64
}

const (
	lasHeaderSize   = 227
	lasHeader14Size = 375
)

var lasSignature = [4]byte{'L', 'A', 'S', 'F'}

// LASInspector inspects LAS and LAZ files by reading their public header.
type LASInspector struct{}

func (LASInspector) InspectFile(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, errors.New("opening point cloud file failed").
			WithType(ErrTypeInspection).
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	info, err := ReadHeader(f)
	if err != nil {
		return FileInfo{}, errors.New("reading point cloud header failed").
			WithType(ErrTypeInspection).
			WithTag("path", path).
			Wrap(err)
	}

	info.Path = path
	return info, nil
}

func (i LASInspector) InspectFolder(path string) (FolderInfo, error) {
	return inspectFolder(path, i.InspectFile)
}

// ReadHeader decodes a LAS public header block.
func ReadHeader(r io.Reader) (FileInfo, error) {
	b := make([]byte, lasHeader14Size)
	n, err := io.ReadFull(r, b)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FileInfo{}, err
	}
	if n < lasHeaderSize {
		return FileInfo{}, errors.New("header is truncated").
			WithType(ErrTypeInspection).
			WithTag("size", n)
	}
	b = b[:n]

	var h lasHeader
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return FileInfo{}, err
	}

	if h.Signature != lasSignature {
		return FileInfo{}, errors.New("not a las file").
			WithType(ErrTypeInspection).
			WithTag("signature", string(h.Signature[:]))
	}

	pointCount := uint64(h.LegacyPointCount)
	if h.VersionMajor == 1 && h.VersionMinor >= 4 {
		if int(h.HeaderSize) < lasHeader14Size || n < lasHeader14Size {
			return FileInfo{}, errors.New("las 1.4 header is truncated").
				WithType(ErrTypeInspection).
				WithTag("header_size", h.HeaderSize)
		}

		var h14 lasHeader14
		if err := binary.Read(bytes.NewReader(b[lasHeaderSize:]), binary.LittleEndian, &h14); err != nil {
			return FileInfo{}, err
		}
		pointCount = h14.PointCount
	}

	return FileInfo{
		PointCount: pointCount,
		Bounds: geometry.Extent{
			MinX: h.MinX,
			MinY: h.MinY,
			MaxX: h.MaxX,
			MaxY: h.MaxY,
		},
		MinZ:   h.MinZ,
		MaxZ:   h.MaxZ,
		ScaleX: h.ScaleX,
		ScaleY: h.ScaleY,
		ScaleZ: h.ScaleZ,
	}, nil
}
