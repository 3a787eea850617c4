package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrFormat is returned for input that is neither valid ASCII nor valid
// binary STL.
var ErrFormat = errors.New("stl: malformed file")

const (
	headerSize     = 80
	binaryPrefix   = headerSize + 4
	binaryFacetLen = 50
)

// binaryFacet is the on-disk layout of one binary facet, 50 bytes.
type binaryFacet struct {
	Normal    [3]float32
	V         [3][3]float32
	Attribute uint16
}

// ReadFile reads an STL file and returns a Model. The triangles are loaded
// by render.LoadSTL, which does not keep facet normals, so normals are
// recomputed from the vertex winding. The name is taken from the header.
func ReadFile(filename string) (*Model, error) {
	tris, err := render.LoadSTL(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load STL %s: %w", filename, err)
	}
	name, err := readName(filename)
	if err != nil {
		return nil, err
	}

	model := NewModel(name)
	model.Triangles = make([]Triangle, 0, len(tris))
	for _, tri := range tris {
		t := Triangle{V: [3]v3.Vec{tri[0], tri[1], tri[2]}}
		t.Normal = t.FaceNormal()
		model.AddTriangle(t)
	}
	return model, nil
}

// readName returns the solid name stored at the start of an STL file.
func readName(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	head := make([]byte, binaryPrefix)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read header: %w", err)
	}
	return headerName(head[:n], info.Size()), nil
}

// isBinary reports whether data of the given total size, starting with head,
// is a binary STL: the facet count in the header must match the size.
func isBinary(head []byte, size int64) bool {
	if len(head) < binaryPrefix {
		return false
	}
	n := binary.LittleEndian.Uint32(head[headerSize:binaryPrefix])
	return uint64(size) == binaryPrefix+uint64(n)*binaryFacetLen
}

// headerName extracts the solid name: the trimmed 80-byte header of a binary
// file, or the words after "solid" on the first line of an ASCII file.
func headerName(head []byte, size int64) string {
	if isBinary(head, size) {
		return strings.TrimSpace(string(bytes.TrimRight(head[:headerSize], "\x00")))
	}
	line, _, _ := bytes.Cut(bytes.TrimLeft(head, " \t\r\n"), []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) > 1 && fields[0] == "solid" {
		return strings.Join(fields[1:], " ")
	}
	return ""
}

// Read parses an STL stream. It automatically detects whether the data is
// ASCII or binary: data whose length matches the binary facet count is
// binary even when the header starts with "solid", as many exporters
// write.
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL: %w", err)
	}

	if isBinary(data, int64(len(data))) {
		return parseBinary(bytes.NewReader(data))
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCII(bytes.NewReader(data))
	}
	return parseBinary(bytes.NewReader(data))
}

// parseASCII parses an ASCII STL stream.
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	model := NewModel("")

	var (
		current  Triangle
		vertices int
		inFacet  bool
		lineNo   int
	)

	parseVec := func(fields []string) (v3.Vec, error) {
		var out [3]float64
		for i := range out {
			f, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return v3.Vec{}, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNo, err)
			}
			out[i] = f
		}
		return v3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
	}

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: bad facet line", ErrFormat, lineNo)
			}
			n, err := parseVec(fields[2:])
			if err != nil {
				return nil, err
			}
			current = Triangle{Normal: n}
			vertices = 0
			inFacet = true

		case "vertex":
			if !inFacet || len(fields) != 4 || vertices == 3 {
				return nil, fmt.Errorf("%w: line %d: unexpected vertex", ErrFormat, lineNo)
			}
			p, err := parseVec(fields[1:])
			if err != nil {
				return nil, err
			}
			current.V[vertices] = p
			vertices++

		case "endfacet":
			if !inFacet || vertices != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrFormat, lineNo, vertices)
			}
			model.AddTriangle(current)
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	if inFacet {
		return nil, fmt.Errorf("%w: unterminated facet", ErrFormat)
	}

	return model, nil
}

// parseBinary parses a binary STL stream.
func parseBinary(reader io.Reader) (*Model, error) {
	// Read 80-byte header
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrFormat, err)
	}

	// Extract name from header (if present)
	model := NewModel(strings.TrimSpace(string(bytes.TrimRight(header, "\x00"))))

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("%w: failed to read triangle count: %v", ErrFormat, err)
	}

	model.Triangles = make([]Triangle, 0, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		var f binaryFacet
		if err := binary.Read(reader, binary.LittleEndian, &f); err != nil {
			return nil, fmt.Errorf("%w: failed to read triangle %d: %v", ErrFormat, i, err)
		}
		t := Triangle{Normal: vec(f.Normal)}
		for j := range t.V {
			t.V[j] = vec(f.V[j])
		}
		model.AddTriangle(t)
	}

	return model, nil
}

func vec(a [3]float32) v3.Vec {
	return v3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}
