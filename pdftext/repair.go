package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var (
	errNoObjects = errors.New("repair failed: no objects found")
	errNoCatalog = errors.New("repair failed: no document catalog found")
)

var (
	reObjHeader = regexp.MustCompile(`(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+obj\b`)
	reRootRef   = regexp.MustCompile(`/Root[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+R\b`)
	reInfoRef   = regexp.MustCompile(`/Info[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+R\b`)
	reEncRef    = regexp.MustCompile(`/Encrypt[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+R\b`)
	reID        = regexp.MustCompile(`/ID[\x00\t\n\f\r ]*\[[\x00\t\n\f\r ]*<[0-9A-Fa-f\s]*>[\x00\t\n\f\r ]*<[0-9A-Fa-f\s]*>[\x00\t\n\f\r ]*\]`)
	reCatalog   = regexp.MustCompile(`/Type[\x00\t\n\f\r ]*/Catalog\b`)
)

type objEntry struct {
	offset int
	gen    int
}

type objRef struct {
	num, gen int
}

func (r objRef) String() string {
	return fmt.Sprintf("%d %d R", r.num, r.gen)
}

// Repair rebuilds the cross-reference table of a PDF by scanning the whole
// file for "<num> <gen> obj" headers. When an object number is defined more
// than once the last definition wins. A fresh xref section and trailer are
// appended to a copy of data, leaving the original bytes in place so the
// recorded offsets stay valid.
//
// Objects stored inside object streams cannot be located this way.
func Repair(data []byte) ([]byte, error) {
	entries := scanObjects(data)
	if len(entries) == 0 {
		return nil, errNoObjects
	}

	root, ok := findRoot(data, entries)
	if !ok {
		return nil, errNoCatalog
	}

	maxNum := 0
	for n := range entries {
		if n > maxNum {
			maxNum = n
		}
	}
	size := maxNum + 1

	// The parser insists on a well-formed header line at offset 0.
	var prefix []byte
	if !hasHeader(data) {
		prefix = []byte("%PDF-1.4\n")
	}

	var buf bytes.Buffer
	buf.Grow(len(prefix) + len(data) + 20*size + 256)
	buf.Write(prefix)
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' && data[len(data)-1] != '\r' {
		buf.WriteByte('\n')
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		if e, ok := entries[n]; ok {
			fmt.Fprintf(&buf, "%010d %05d n \n", e.offset+len(prefix), e.gen)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s", size, root)
	if ref, ok := lastRef(data, reInfoRef, entries); ok {
		fmt.Fprintf(&buf, " /Info %s", ref)
	}
	if ref, ok := lastRef(data, reEncRef, entries); ok {
		fmt.Fprintf(&buf, " /Encrypt %s", ref)
	}
	if ids := reID.FindAll(data, -1); len(ids) > 0 {
		buf.WriteByte(' ')
		buf.Write(ids[len(ids)-1])
	}
	buf.WriteString(" >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}

// scanObjects maps object numbers to the offset of their last definition.
func scanObjects(data []byte) map[int]objEntry {
	entries := make(map[int]objEntry)
	for _, m := range reObjHeader.FindAllSubmatchIndex(data, -1) {
		start := m[0]
		if start > 0 && !isDelimiter(data[start-1]) {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil || num <= 0 || gen > 65535 {
			continue
		}
		entries[num] = objEntry{offset: start, gen: gen}
	}
	return entries
}

// findRoot returns the last /Root reference that names a defined object,
// falling back to the highest numbered object declaring /Type /Catalog.
func findRoot(data []byte, entries map[int]objEntry) (objRef, bool) {
	if ref, ok := lastRef(data, reRootRef, entries); ok {
		return ref, true
	}

	nums := make([]int, 0, len(entries))
	for n := range entries {
		nums = append(nums, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nums)))
	for _, n := range nums {
		e := entries[n]
		if reCatalog.Match(objectBody(data, e.offset)) {
			return objRef{num: n, gen: e.gen}, true
		}
	}
	return objRef{}, false
}

// lastRef returns the last indirect reference matched by re whose object is
// defined in entries.
func lastRef(data []byte, re *regexp.Regexp, entries map[int]objEntry) (objRef, bool) {
	matches := re.FindAllSubmatch(data, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		num, err1 := strconv.Atoi(string(matches[i][1]))
		gen, err2 := strconv.Atoi(string(matches[i][2]))
		if err1 != nil || err2 != nil {
			continue
		}
		if e, ok := entries[num]; ok && e.gen == gen {
			return objRef{num: num, gen: gen}, true
		}
	}
	return objRef{}, false
}

// objectBody returns the bytes of the object starting at offset, up to and
// excluding its endobj keyword.
func objectBody(data []byte, offset int) []byte {
	body := data[offset:]
	if i := bytes.Index(body, []byte("endobj")); i >= 0 {
		body = body[:i]
	}
	return body
}

func hasHeader(data []byte) bool {
	return len(data) > 8 &&
		bytes.HasPrefix(data, []byte("%PDF-1.")) &&
		data[7] >= '0' && data[7] <= '7' &&
		(data[8] == '\n' || data[8] == '\r')
}

func isDelimiter(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ', '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
