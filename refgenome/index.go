package refgenome

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// Index files consist of one tab-separated line per sequence: "<name>\t
// <length>\t<byte offset>\t<bases per line>\t<bytes per line>", the same
// faidx format the teacher's encoding/fasta/index.go generates and parses.
var indexLineRE = regexp.MustCompile(`(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)`)

type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

// ParseIndex reads a .fai index and returns per-contig metadata, in file
// order.
func ParseIndex(r io.Reader) (entries map[string]indexEntry, order []string, err error) {
	entries = make(map[string]indexEntry)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := indexLineRE.FindStringSubmatch(scanner.Text())
		if len(m) != 6 {
			return nil, nil, errors.E(errors.Invalid, fmt.Sprintf("refgenome: malformed index line %q", scanner.Text()))
		}
		var ent indexEntry
		ent.length, _ = strconv.ParseUint(m[2], 10, 64)
		ent.offset, _ = strconv.ParseUint(m[3], 10, 64)
		ent.lineBase, _ = strconv.ParseUint(m[4], 10, 64)
		ent.lineWidth, _ = strconv.ParseUint(m[5], 10, 64)
		entries[m[1]] = ent
		order = append(order, m[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.E(errors.Unavailable, err)
	}
	sortSeqNamesByOffset(order, func() map[string]uint64 {
		off := make(map[string]uint64, len(entries))
		for k, v := range entries {
			off[k] = v.offset
		}
		return off
	}())
	return entries, order, nil
}

// GenerateIndex writes a faidx-compatible index for in, the counterpart to
// ParseIndex. Adapted from the teacher's fasta.GenerateIndex, which used
// tsv.Writer for the same tab-separated record shape.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		tsvOut      = tsv.NewWriter(out)
		r           = bufio.NewReader(in)
		seqName     string
		seqStartOff int64
		totalBases  int
		lineBases   int
		lineWidth   int
		cumByte     int64
		eof         bool
	)
	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	flush := func() {
		if seqName == "" {
			return
		}
		tsvOut.WriteString(seqName)
		tsvOut.WriteInt64(int64(totalBases))
		tsvOut.WriteInt64(seqStartOff)
		tsvOut.WriteInt64(int64(lineBases))
		tsvOut.WriteInt64(int64(lineWidth))
		setErr(tsvOut.EndLine())
	}
	for !eof && err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			setErr(e)
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			seqName = strings.Split(string(line[1:]), " ")[0]
			seqStartOff = cumByte
			lineWidth = 0
			lineBases = 0
			totalBases = 0
			continue
		}
		if seqName == "" {
			setErr(errors.E(errors.Invalid, "refgenome: sequence data before any header"))
			continue
		}
		if lineWidth == 0 {
			lineWidth = len(fullLine)
			lineBases = len(line)
		}
		totalBases += len(line)
	}
	flush()
	setErr(tsvOut.Flush())
	if cumByte == 0 {
		setErr(errors.E(errors.Invalid, "refgenome: empty FASTA file"))
	}
	return
}
