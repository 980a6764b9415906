package pointcloud

import (
	"bufio"
	"encoding/binary"
	"os"
)

const testPointRecordLength = 20

// WriteTestFile writes a LAS file of point format 0 with the given header
// values and zeroed point records. LAS 1.4 headers are written when minor is
// 4 or more.
//
// It is used to create fixtures for tests and for local runs without real
// point clouds.
func WriteTestFile(path string, info FileInfo, minor uint8) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	headerSize := uint16(lasHeaderSize)
	if minor >= 4 {
		headerSize = lasHeader14Size
	}

	legacyCount := uint32(info.PointCount)
	if info.PointCount > uint64(^uint32(0)) {
		legacyCount = 0
	}

	h := lasHeader{
		Signature:         lasSignature,
		VersionMajor:      1,
		VersionMinor:      minor,
		HeaderSize:        headerSize,
		OffsetToPointData: uint32(headerSize),
		PointFormat:       0,
		PointRecordLength: testPointRecordLength,
		LegacyPointCount:  legacyCount,
		ScaleX:            info.ScaleX,
		ScaleY:            info.ScaleY,
		ScaleZ:            info.ScaleZ,
		MaxX:              info.Bounds.MaxX,
		MinX:              info.Bounds.MinX,
		MaxY:              info.Bounds.MaxY,
		MinY:              info.Bounds.MinY,
		MaxZ:              info.MaxZ,
		MinZ:              info.MinZ,
	}
	copy(h.GeneratingSoftware[:], "lastiler")

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}

	if minor >= 4 {
		if err := binary.Write(w, binary.LittleEndian, lasHeader14{PointCount: info.PointCount}); err != nil {
			return err
		}
	}

	record := make([]byte, testPointRecordLength)
	for i := uint64(0); i < info.PointCount; i++ {
		if _, err := w.Write(record); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
