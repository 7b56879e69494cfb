package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	lzf "github.com/zhuyie/golzf"
)

// PCDType is the data encoding of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed lzf-compressed binary format for pcd.
	PCDCompressed PCDType = 2
)

type pcdFieldType int

const (
	pcdPointOnly  pcdFieldType = 3
	pcdPointColor pcdFieldType = 4
)

type pcdHeader struct {
	fields pcdFieldType
	size   []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Split(value, " ")
	if field != name {
		return fmt.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return fmt.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		switch value {
		case "x y z":
			header.fields = pcdPointOnly
		case "x y z rgb":
			header.fields = pcdPointColor
		default:
			return fmt.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if len(tokens) != int(header.fields) {
			return errors.New("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid SIZE field %s", token)
			}
		}
		// x, y, z decode as 4 byte floats; anything else cannot be read
		for i := 0; i < 3; i++ {
			if header.size[i] != 4 {
				return fmt.Errorf("unsupported SIZE %d for field %d, only 4 byte coordinates are supported", header.size[i], i)
			}
		}
	case "TYPE", "COUNT", "VIEWPOINT":
		// parsed for position only; the values do not affect xyz decoding here
		if name != "VIEWPOINT" && len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in %s line", name)
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid WIDTH field %s: %s", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid HEIGHT field %s: %s", value, err)
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if points != header.width*header.height {
			return fmt.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return fmt.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads a pcd file (ascii, binary or binary_compressed) into a Cloud.
// Color fields, when present, are skipped; only positions are retained.
func ReadPCD(inRaw io.Reader) (*Cloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	var line string
	var err error
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err = in.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header line %d: %s", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return readPCDCompressed(in, header)
	default:
		return nil, fmt.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line = strings.TrimSpace(line)
		tokens := strings.Fields(line)
		if len(tokens) != int(header.fields) {
			return nil, fmt.Errorf("unexpected number of fields in point %d", i)
		}
		point := make([]float64, 3)
		for j := 0; j < 3; j++ {
			point[j], err = strconv.ParseFloat(tokens[j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %d field %s: %s", i, tokens[j], err)
			}
		}
		pc.Append(r3.Vector{X: point[0], Y: point[1], Z: point[2]})
	}
	return pc, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		var coords [3]float64
		for j := 0; j < int(header.fields); j++ {
			buf := make([]byte, header.size[j])
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			if j < 3 {
				coords[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
			}
		}
		pc.Append(r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	return pc, nil
}

// readPCDCompressed handles DATA binary_compressed: a compressed/uncompressed
// size pair followed by an lzf block holding the data field-major (all x
// values, then all y, then all z, ...).
func readPCDCompressed(in *bufio.Reader, header pcdHeader) (*Cloud, error) {
	var sizes [2]uint32
	if err := binary.Read(in, binary.LittleEndian, &sizes); err != nil {
		return nil, errors.Wrap(err, "reading compressed block sizes")
	}
	compressed := make([]byte, sizes[0])
	if _, err := io.ReadFull(in, compressed); err != nil {
		return nil, errors.Wrap(err, "reading compressed block")
	}
	uncompressed := make([]byte, sizes[1])
	n, err := lzf.Decompress(compressed, uncompressed)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing pcd data")
	}
	if uint32(n) != sizes[1] {
		return nil, fmt.Errorf("decompressed %d bytes, header promised %d", n, sizes[1])
	}

	points := int(header.points)
	pc := NewWithPrealloc(points)
	// field-major offsets for x, y, z
	var offsets [3]int
	offset := 0
	for j := 0; j < int(header.fields); j++ {
		if j < 3 {
			offsets[j] = offset
		}
		offset += int(header.size[j]) * points
	}
	if offset > len(uncompressed) {
		return nil, errors.New("compressed pcd data shorter than header promises")
	}
	for i := 0; i < points; i++ {
		var coords [3]float64
		for j := 0; j < 3; j++ {
			start := offsets[j] + i*int(header.size[j])
			coords[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(uncompressed[start:])))
		}
		pc.Append(r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	return pc, nil
}

// WritePCD writes the cloud to out in pcd format. Only ascii and binary
// encodings are produced.
func WritePCD(cloud *Cloud, out io.Writer, outputType PCDType) error {
	if outputType == PCDCompressed {
		return errors.New("writing compressed pcd is not supported")
	}
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Size(), cloud.Size())
	if err != nil {
		return err
	}
	switch outputType {
	case PCDAscii:
		if _, err := fmt.Fprintf(out, "DATA ascii\n"); err != nil {
			return err
		}
	case PCDBinary:
		if _, err := fmt.Fprintf(out, "DATA binary\n"); err != nil {
			return err
		}
	}
	var writeErr error
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		switch outputType {
		case PCDBinary:
			buf := make([]byte, 12)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(p.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
			_, writeErr = out.Write(buf)
		case PCDAscii:
			_, writeErr = fmt.Fprintf(out, "%f %f %f\n", p.X, p.Y, p.Z)
		}
		return writeErr == nil
	})
	return writeErr
}
