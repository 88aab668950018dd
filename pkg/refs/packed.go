package refs

import (
	"bufio"
	"bytes"
	"slices"
	"strings"

	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const (
	packedRefsFile   = "packed-refs"
	packedRefsHeader = "# pack-refs with: peeled fully-peeled sorted \n"
)

// packedRefs is the parsed content of the packed-refs file:
//
//	# pack-refs with: peeled fully-peeled sorted
//	<id> refs/heads/main
//	<id> refs/tags/v1.0
//	^<peeled id>
type packedRefs struct {
	refs map[string]*Reference
}

func parsePackedRefs(data []byte) (*packedRefs, error) {
	p := &packedRefs{refs: make(map[string]*Reference)}

	var last *Reference
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "^"):
			if last == nil {
				return nil, corruptPacked(lineNo, "peeled line without a reference")
			}
			id, err := objects.ParseObjectID(line[1:])
			if err != nil {
				return nil, corruptPacked(lineNo, "bad peeled id")
			}
			last.Peeled = id
			last = nil
		default:
			hex, name, ok := strings.Cut(line, " ")
			if !ok {
				return nil, corruptPacked(lineNo, "missing reference name")
			}
			id, err := objects.ParseObjectID(hex)
			if err != nil {
				return nil, corruptPacked(lineNo, "bad object id")
			}
			if !IsValidName(name) {
				return nil, corruptPacked(lineNo, "bad reference name "+name)
			}
			last = NewDirect(name, id)
			p.refs[name] = last
		}
	}
	if err := sc.Err(); err != nil {
		return nil, corruptPacked(0, err.Error())
	}
	return p, nil
}

func (p *packedRefs) names() []string {
	names := make([]string, 0, len(p.refs))
	for name := range p.refs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p *packedRefs) encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(packedRefsHeader)
	for _, name := range p.names() {
		ref := p.refs[name]
		buf.WriteString(ref.Target.String())
		buf.WriteByte(' ')
		buf.WriteString(name)
		buf.WriteByte('\n')
		if ref.Peeled.IsValid() && !ref.Peeled.IsZero() {
			buf.WriteByte('^')
			buf.WriteString(ref.Peeled.String())
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
