// Package template implements the structural-template compressor. Each line
// is reduced to a template in which identifiers, numbers and string literals
// are replaced by placeholders; templates and the removed fillers are stored
// in two frequency-ordered dictionaries.
package template

import (
	"math"
	"sort"
	"strings"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
	"github.com/seiflotfy/genpress/internal/textseq"
	"github.com/seiflotfy/genpress/tokendict"
)

// Placeholders substituted into templates.
const (
	PlaceholderID  = "ID"
	PlaceholderStr = "STR"
	PlaceholderNum = "NUM"
)

const (
	// DefaultMinLength is the shortest input worth templating.
	DefaultMinLength = 32

	headerBytes = 8
)

// keywords pass through into templates unchanged. All entries are lowercase
// so a template never contains upper-case letters outside placeholders.
var keywords = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`
		break case chan const continue default defer else fallthrough for func go goto
		if import interface map package range return select struct switch type var
		let function class new this true false null nil undefined async await yield
		try catch finally throw typeof instanceof in of delete void do while static
		public private protected extends implements enum def elif lambda pass and or
		not is with as from global raise except int float string bool byte rune error`) {
		keywords[kw] = true
	}
}

// Extract builds the template structure of text without any cost guard.
func Extract(text string) descriptor.Template {
	lines := strings.Split(text, "\n")

	lineTemplates := make([]string, len(lines))
	lineFillers := make([][]string, len(lines))
	for i, line := range lines {
		lineTemplates[i], lineFillers[i] = templatize(line)
	}

	var allFillers []string
	for _, f := range lineFillers {
		allFillers = append(allFillers, f...)
	}
	templates, templateIndex := frequencyDictionary(lineTemplates)
	fillers, fillerIndex := frequencyDictionary(allFillers)

	out := descriptor.Template{
		Templates: templates,
		Fillers:   fillers,
		Lines:     make([]descriptor.TemplateLine, len(lines)),
	}
	for i := range lines {
		line := descriptor.TemplateLine{Template: templateIndex[lineTemplates[i]]}
		if len(lineFillers[i]) > 0 {
			line.Fillers = make([]int, len(lineFillers[i]))
			for j, f := range lineFillers[i] {
				line.Fillers[j] = fillerIndex[f]
			}
		}
		out.Lines[i] = line
	}
	return out
}

// templatize splits one line into its template and ordered fillers.
func templatize(line string) (string, []string) {
	var b strings.Builder
	var fillers []string
	n := len(line)
	for i := 0; i < n; {
		c := line[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			j := scanString(line, i)
			fillers = append(fillers, line[i:j])
			b.WriteString(PlaceholderStr)
			i = j
		case tokendict.IsDigit(c) && (i == 0 || !tokendict.IsIdentPart(line[i-1])):
			j := i + 1
			for j < n && (tokendict.IsIdentPart(line[j]) || line[j] == '.') {
				j++
			}
			fillers = append(fillers, line[i:j])
			b.WriteString(PlaceholderNum)
			i = j
		case tokendict.IsIdentStart(c):
			j := i + 1
			for j < n && tokendict.IsIdentPart(line[j]) {
				j++
			}
			word := line[i:j]
			if keywords[word] {
				b.WriteString(word)
			} else {
				fillers = append(fillers, word)
				b.WriteString(PlaceholderID)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), fillers
}

// scanString consumes a string literal within a single line.
func scanString(line string, i int) int {
	quote := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(line)
}

func frequencyDictionary(items []string) ([]string, map[string]int) {
	counts := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		if _, ok := counts[it]; !ok {
			order = append(order, it)
		}
		counts[it]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	index := make(map[string]int, len(order))
	for i, it := range order {
		index[it] = i
	}
	return order, index
}

// Cost estimates the serialized size of t in bytes.
func Cost(t descriptor.Template) int {
	templateBytes := 0
	for _, s := range t.Templates {
		templateBytes += len(s) + 1
	}
	fillerBytes := 0
	for _, s := range t.Fillers {
		fillerBytes += len(s) + 1
	}
	totalFillers := 0
	for _, l := range t.Lines {
		totalFillers += len(l.Fillers)
	}
	lines := len(t.Lines)
	templateRefs := int(math.Ceil(float64(lines) * cost.IndexBits(len(t.Templates)) / 8))
	fillerRefs := int(math.Ceil(float64(totalFillers) * cost.IndexBits(len(t.Fillers)) / 8))
	return templateBytes + templateRefs + fillerBytes + fillerRefs + lines + headerBytes
}

// Compress proposes a template descriptor for data. It declines input that
// is not text, shorter than minLength, or not smaller than raw.
func Compress(data []int64, minLength int) (descriptor.Descriptor, bool) {
	if len(data) < minLength {
		return descriptor.Descriptor{}, false
	}
	text, ok := textseq.Text(data)
	if !ok {
		return descriptor.Descriptor{}, false
	}
	t := Extract(text)
	size := Cost(t)
	if size >= len(data) {
		return descriptor.Descriptor{}, false
	}
	return descriptor.New(t, size), true
}

// Decode regenerates the byte sequence described by t, rejecting output
// longer than limit.
func Decode(t descriptor.Template, limit int) ([]int64, error) {
	var b strings.Builder
	for li, line := range t.Lines {
		if b.Len() > limit {
			return nil, descriptor.Malformedf("line %d starts past length %d", li, limit)
		}
		if li > 0 {
			b.WriteByte('\n')
		}
		if line.Template < 0 || line.Template >= len(t.Templates) {
			return nil, descriptor.Malformedf("line %d references template %d of %d", li, line.Template, len(t.Templates))
		}
		tmpl := t.Templates[line.Template]
		next := 0
		for i := 0; i < len(tmpl); {
			ph := placeholderAt(tmpl, i)
			if ph == "" {
				b.WriteByte(tmpl[i])
				i++
				continue
			}
			if next >= len(line.Fillers) {
				return nil, descriptor.Malformedf("line %d has more placeholders than fillers", li)
			}
			idx := line.Fillers[next]
			if idx < 0 || idx >= len(t.Fillers) {
				return nil, descriptor.Malformedf("line %d references filler %d of %d", li, idx, len(t.Fillers))
			}
			if b.Len()+len(t.Fillers[idx]) > limit {
				return nil, descriptor.Malformedf("line %d exceeds length %d", li, limit)
			}
			b.WriteString(t.Fillers[idx])
			next++
			i += len(ph)
		}
		if next != len(line.Fillers) {
			return nil, descriptor.Malformedf("line %d has %d unused fillers", li, len(line.Fillers)-next)
		}
	}
	return textseq.FromString(b.String()), nil
}

func placeholderAt(tmpl string, i int) string {
	for _, ph := range []string{PlaceholderID, PlaceholderStr, PlaceholderNum} {
		if strings.HasPrefix(tmpl[i:], ph) {
			return ph
		}
	}
	return ""
}
