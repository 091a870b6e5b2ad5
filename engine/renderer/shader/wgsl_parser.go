package shader

import (
	"regexp"
	"strconv"
	"strings"
)

// Binding is one resource declaration found in WGSL source.
type Binding struct {
	Group   uint32
	Binding uint32
	// AddressSpace is the var<...> qualifier, e.g. "uniform", or empty for handle types.
	AddressSpace string
	Name         string
	Type         string
}

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b\s*fn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b\s*fn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(2) @binding(0) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoints returns every function name annotated with re, in source order.
func parseEntryPoints(source string, re *regexp.Regexp) []string {
	var names []string
	for _, match := range re.FindAllStringSubmatch(source, -1) {
		names = append(names, match[1])
	}
	return names
}

// parseBindings extracts every @group/@binding declaration.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []Binding: the declarations in source order
func parseBindings(source string) []Binding {
	var bindings []Binding
	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		binding, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			continue
		}
		bindings = append(bindings, Binding{
			Group:        uint32(group),
			Binding:      uint32(binding),
			AddressSpace: strings.TrimSpace(m[3]),
			Name:         m[4],
			Type:         strings.TrimSpace(m[5]),
		})
	}
	return bindings
}

// stripComments removes line and (nested) block comments so annotations inside comments are not matched.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
