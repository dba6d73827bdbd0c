// Package yamlshape parses and validates a per-challenge chall.yaml
// descriptor into a verified Shape. Parsing never short-circuits on the
// first bad field: every top-level field error is collected into a single
// aggregated *apierrors.YAMLVerifyError so callers (and, transitively, the
// HTTP client) see the whole picture in one response.
package yamlshape

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
)

// Shape is the verified challenge descriptor.
type Shape struct {
	Name        string
	Description string
	Points      uint64
	Visible     bool
	Categories  []string
	Authors     []string
	Hints       []string
	Flag        Flag
	Files       []FileEntry
	Deploy      map[DeployTargetType]DeployTarget
}

// Verify parses raw YAML bytes into a Shape. On success err is nil. On
// failure err is non-nil and describes every field problem found; shape is
// nil in that case, since a partially-populated shape cannot be trusted by
// callers.
func Verify(data []byte) (*Shape, *apierrors.YAMLVerifyError) {
	verr := &apierrors.YAMLVerifyError{}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		verr.ParseFailure = true
		return nil, verr
	}
	if len(doc.Content) == 0 {
		verr.ParseFailure = true
		return nil, verr
	}

	root := doc.Content[0]
	for root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		verr.RootNotMap = true
		return nil, verr
	}

	fields := mappingFields(root)
	shape := &Shape{}

	shape.Name = requireString(fields, "name", verr)
	shape.Description = requireString(fields, "description", verr)
	shape.Points = requireUint(fields, "value", verr)
	shape.Visible = requireBool(fields, "visible", verr)
	shape.Categories = requireCategories(fields, verr)
	shape.Authors = optionalStringList(fields, "authors")
	shape.Hints = optionalStringList(fields, "hints")
	shape.Flag = requireFlag(fields, verr)
	shape.Files = parseFiles(fields, verr)
	shape.Deploy = parseDeploy(fields, verr)

	if verr.HasErrors() {
		return nil, verr
	}
	return shape, nil
}

// mappingFields indexes a mapping node's direct children by key string.
func mappingFields(m *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		out[m.Content[i].Value] = m.Content[i+1]
	}
	return out
}

func requireString(fields map[string]*yaml.Node, key string, verr *apierrors.YAMLVerifyError) string {
	n, ok := fields[key]
	if !ok {
		verr.AddField(&apierrors.YAMLFieldError{Field: key, Kind: apierrors.YAMLMissingField, Message: "required field is missing"})
		return ""
	}
	vt := valueTypeOf(n)
	if vt != TypeString {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: key, Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected string, found %s", vt),
		})
		return ""
	}
	return n.Value
}

func requireBool(fields map[string]*yaml.Node, key string, verr *apierrors.YAMLVerifyError) bool {
	n, ok := fields[key]
	if !ok {
		verr.AddField(&apierrors.YAMLFieldError{Field: key, Kind: apierrors.YAMLMissingField, Message: "required field is missing"})
		return false
	}
	if valueTypeOf(n) != TypeBool {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: key, Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected bool, found %s", valueTypeOf(n)),
		})
		return false
	}
	b, _ := strconv.ParseBool(n.Value)
	return b
}

func requireUint(fields map[string]*yaml.Node, key string, verr *apierrors.YAMLVerifyError) uint64 {
	n, ok := fields[key]
	if !ok {
		verr.AddField(&apierrors.YAMLFieldError{Field: key, Kind: apierrors.YAMLMissingField, Message: "required field is missing"})
		return 0
	}
	if valueTypeOf(n) != TypeNumber {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: key, Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected number, found %s", valueTypeOf(n)),
		})
		return 0
	}
	u, err := strconv.ParseUint(n.Value, 10, 64)
	if err != nil {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: key, Kind: apierrors.YAMLInvalidValue, SubKind: "not_unsigned",
			Message: "points must be a non-negative integer",
		})
		return 0
	}
	return u
}

func requireCategories(fields map[string]*yaml.Node, verr *apierrors.YAMLVerifyError) []string {
	n, ok := fields["categories"]
	if !ok {
		verr.AddField(&apierrors.YAMLFieldError{Field: "categories", Kind: apierrors.YAMLMissingField, Message: "required field is missing"})
		return nil
	}
	if valueTypeOf(n) != TypeSequence {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "categories", Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected sequence, found %s", valueTypeOf(n)),
		})
		return nil
	}
	var out []string
	anyBad := false
	for i, item := range n.Content {
		if valueTypeOf(item) != TypeString {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "categories", Kind: apierrors.YAMLInvalidValue, SubKind: fmt.Sprintf("index_%d", i),
				Message: fmt.Sprintf("category at index %d is not a string", i),
			})
			anyBad = true
			continue
		}
		out = append(out, item.Value)
	}
	if len(out) == 0 && !anyBad {
		verr.AddField(&apierrors.YAMLFieldError{Field: "categories", Kind: apierrors.YAMLInvalidValue, SubKind: "empty", Message: "categories must be non-empty"})
	}
	return out
}

func optionalStringList(fields map[string]*yaml.Node, key string) []string {
	n, ok := fields[key]
	if !ok || valueTypeOf(n) != TypeSequence {
		return nil
	}
	var out []string
	for _, item := range n.Content {
		if valueTypeOf(item) == TypeString {
			out = append(out, item.Value)
		}
	}
	return out
}

func requireFlag(fields map[string]*yaml.Node, verr *apierrors.YAMLVerifyError) Flag {
	n, ok := fields["flag"]
	if !ok {
		verr.AddField(&apierrors.YAMLFieldError{Field: "flag", Kind: apierrors.YAMLMissingField, Message: "required field is missing"})
		return Flag{}
	}
	switch valueTypeOf(n) {
	case TypeString:
		return Flag{Kind: FlagString, Literal: n.Value}
	case TypeMapping:
		m := mappingFields(n)
		fileNode, ok := m["file"]
		if !ok {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "flag", Kind: apierrors.YAMLInvalidValue, SubKind: "missing_file_key",
				Message: "flag mapping must have a `file` key",
			})
			return Flag{}
		}
		if valueTypeOf(fileNode) != TypeString {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "flag", Kind: apierrors.YAMLInvalidValue, SubKind: "bad_path",
				Message: "flag.file must be a string path",
			})
			return Flag{}
		}
		return Flag{Kind: FlagFile, Path: fileNode.Value}
	default:
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "flag", Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected string or {file: path}, found %s", valueTypeOf(n)),
		})
		return Flag{}
	}
}

func parseFiles(fields map[string]*yaml.Node, verr *apierrors.YAMLVerifyError) []FileEntry {
	n, ok := fields["files"]
	if !ok {
		return nil
	}
	if valueTypeOf(n) != TypeSequence {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "files", Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected sequence, found %s", valueTypeOf(n)),
		})
		return nil
	}

	var out []FileEntry
	for i, item := range n.Content {
		sub := fmt.Sprintf("index_%d", i)
		if valueTypeOf(item) != TypeMapping {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "files", Kind: apierrors.YAMLInvalidValue, SubKind: sub,
				Message: fmt.Sprintf("files[%d] is not a mapping", i),
			})
			continue
		}
		m := mappingFields(item)
		srcNode, ok := m["src"]
		if !ok {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "files", Kind: apierrors.YAMLInvalidValue, SubKind: sub,
				Message: fmt.Sprintf("files[%d] is missing `src`", i),
			})
			continue
		}
		if valueTypeOf(srcNode) != TypeString {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "files", Kind: apierrors.YAMLInvalidValue, SubKind: sub,
				Message: fmt.Sprintf("files[%d].src is not a string", i),
			})
			continue
		}

		entry := FileEntry{SrcPath: srcNode.Value}
		if ctNode, ok := m["container_type"]; ok {
			if valueTypeOf(ctNode) != TypeString {
				verr.AddField(&apierrors.YAMLFieldError{
					Field: "files", Kind: apierrors.YAMLInvalidValue, SubKind: sub,
					Message: fmt.Sprintf("files[%d].container_type is not a string", i),
				})
				continue
			}
			ct, ok := parseContainerType(ctNode.Value)
			if !ok {
				verr.AddField(&apierrors.YAMLFieldError{
					Field: "files", Kind: apierrors.YAMLInvalidValue, SubKind: sub,
					Message: fmt.Sprintf("files[%d].container_type %q is not one of Static/Nc/Web/Admin", i, ctNode.Value),
				})
				continue
			}
			entry.ContainerType = &ct
		}
		out = append(out, entry)
	}
	return out
}

func parseDeploy(fields map[string]*yaml.Node, verr *apierrors.YAMLVerifyError) map[DeployTargetType]DeployTarget {
	n, ok := fields["deploy"]
	if !ok {
		return nil
	}
	if valueTypeOf(n) != TypeMapping {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "deploy", Kind: apierrors.YAMLWrongType,
			Message: fmt.Sprintf("expected mapping, found %s", valueTypeOf(n)),
		})
		return nil
	}

	out := make(map[DeployTargetType]DeployTarget)
	m := mappingFields(n)
	for key, node := range m {
		targetType, ok := parseDeployTargetType(key)
		if !ok {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "deploy", Kind: apierrors.YAMLInvalidValue, SubKind: "bad_target",
				Message: fmt.Sprintf("deploy target %q is not one of Web/Admin/Nc", key),
			})
			continue
		}
		if valueTypeOf(node) != TypeMapping {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "deploy", Kind: apierrors.YAMLWrongType, SubKind: key,
				Message: fmt.Sprintf("deploy.%s must be a mapping", key),
			})
			continue
		}
		target, ok := parseOneDeployTarget(key, mappingFields(node), verr)
		if ok {
			out[targetType] = target
		}
	}
	return out
}

func parseDeployTargetType(key string) (DeployTargetType, bool) {
	switch strings.ToLower(key) {
	case "web":
		return TargetWeb, true
	case "admin":
		return TargetAdmin, true
	case "nc":
		return TargetNc, true
	default:
		return 0, false
	}
}

func parseOneDeployTarget(key string, fields map[string]*yaml.Node, verr *apierrors.YAMLVerifyError) (DeployTarget, bool) {
	exposeNode, ok := fields["expose"]
	if !ok || valueTypeOf(exposeNode) != TypeString {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "deploy", Kind: apierrors.YAMLInvalidValue, SubKind: key + ".expose",
			Message: fmt.Sprintf("deploy.%s.expose must be a \"<port>/{tcp|udp}\" string", key),
		})
		return DeployTarget{}, false
	}
	expose, err := parseExpose(exposeNode.Value)
	if err != nil {
		verr.AddField(&apierrors.YAMLFieldError{
			Field: "deploy", Kind: apierrors.YAMLInvalidValue, SubKind: key + ".expose",
			Message: err.Error(),
		})
		return DeployTarget{}, false
	}

	replicas := uint8(1)
	if repNode, ok := fields["replicas"]; ok {
		if valueTypeOf(repNode) != TypeNumber {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "deploy", Kind: apierrors.YAMLWrongType, SubKind: key + ".replicas",
				Message: fmt.Sprintf("deploy.%s.replicas must be a number", key),
			})
			return DeployTarget{}, false
		}
		r, err := strconv.ParseUint(repNode.Value, 10, 16)
		if err != nil || r < 1 || r > 255 {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "deploy", Kind: apierrors.YAMLInvalidValue, SubKind: key + ".replicas",
				Message: fmt.Sprintf("deploy.%s.replicas must be in [1,255]", key),
			})
			return DeployTarget{}, false
		}
		replicas = uint8(r)
	}

	build := "."
	if buildNode, ok := fields["build"]; ok {
		if valueTypeOf(buildNode) != TypeString {
			verr.AddField(&apierrors.YAMLFieldError{
				Field: "deploy", Kind: apierrors.YAMLWrongType, SubKind: key + ".build",
				Message: fmt.Sprintf("deploy.%s.build must be a string path", key),
			})
			return DeployTarget{}, false
		}
		build = filepath.Clean(buildNode.Value)
	}

	return DeployTarget{Expose: expose, Replicas: replicas, Build: build}, true
}

// parseExpose parses "<port>/{tcp|udp}" per spec.md §3.
func parseExpose(s string) (Expose, error) {
	port, proto, found := strings.Cut(s, "/")
	if !found {
		return Expose{}, fmt.Errorf("expose %q must be \"<port>/{tcp|udp}\"", s)
	}
	p, err := strconv.ParseUint(port, 10, 32)
	if err != nil || p < 1 || p > 65535 {
		return Expose{}, fmt.Errorf("expose port %q must be in [1,65535]", port)
	}
	switch strings.ToLower(proto) {
	case "tcp":
		return Expose{Port: uint32(p), Protocol: ProtocolTcp}, nil
	case "udp":
		return Expose{Port: uint32(p), Protocol: ProtocolUdp}, nil
	default:
		return Expose{}, fmt.Errorf("expose protocol %q must be tcp or udp", proto)
	}
}
