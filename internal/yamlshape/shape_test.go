package yamlshape

import (
	"testing"
)

const validYAML = `
name: Hidden Values
description: |-
  Describing this is so fun and I love writing words.
  Y'know?
value: 50
visible: true
categories:
  - web
authors:
  - Bloop
hints:
  - How do forms send values?
flag: bcactf{aaaaaaaaa}
files:
  - src: handout/app.py
  - src: handout/server
    container_type: Nc
deploy:
  web:
    expose: 8080/tcp
    replicas: 2
    build: .
`

func TestVerify_ValidDocument(t *testing.T) {
	shape, verr := Verify([]byte(validYAML))
	if verr != nil {
		t.Fatalf("Verify() error = %v", verr)
	}
	if shape.Name != "Hidden Values" {
		t.Errorf("Name = %q", shape.Name)
	}
	if shape.Points != 50 {
		t.Errorf("Points = %d", shape.Points)
	}
	if !shape.Visible {
		t.Error("Visible = false")
	}
	if len(shape.Categories) != 1 || shape.Categories[0] != "web" {
		t.Errorf("Categories = %v", shape.Categories)
	}
	if shape.Flag.Kind != FlagString || shape.Flag.Literal != "bcactf{aaaaaaaaa}" {
		t.Errorf("Flag = %+v", shape.Flag)
	}
	if len(shape.Files) != 2 {
		t.Fatalf("Files = %v", shape.Files)
	}
	if shape.Files[1].ContainerType == nil || *shape.Files[1].ContainerType != ContainerNc {
		t.Errorf("Files[1].ContainerType = %+v", shape.Files[1].ContainerType)
	}
	web, ok := shape.Deploy[TargetWeb]
	if !ok {
		t.Fatal("Deploy[TargetWeb] missing")
	}
	if web.Expose.Port != 8080 || web.Expose.Protocol != ProtocolTcp {
		t.Errorf("web.Expose = %+v", web.Expose)
	}
	if web.Replicas != 2 {
		t.Errorf("web.Replicas = %d", web.Replicas)
	}
}

func TestVerify_NotWellFormed(t *testing.T) {
	_, verr := Verify([]byte("name: [unterminated"))
	if verr == nil || !verr.ParseFailure {
		t.Fatalf("Verify() = %v, want ParseFailure", verr)
	}
}

func TestVerify_RootNotMapping(t *testing.T) {
	_, verr := Verify([]byte("- just\n- a\n- list\n"))
	if verr == nil || !verr.RootNotMap {
		t.Fatalf("Verify() = %v, want RootNotMap", verr)
	}
}

func TestVerify_AggregatesAllFieldErrors(t *testing.T) {
	doc := `
value: "not a number"
visible: "not a bool"
categories: {}
flag: 5
`
	_, verr := Verify([]byte(doc))
	if verr == nil {
		t.Fatal("Verify() = nil error, want aggregated field errors")
	}

	// name and description are missing entirely; value/visible/categories/
	// flag are present but wrong-typed. All must be reported in one pass.
	fieldsSeen := map[string]int{}
	for _, f := range verr.Fields {
		fieldsSeen[f.Field]++
	}
	for _, want := range []string{"name", "description", "value", "visible", "categories", "flag"} {
		if fieldsSeen[want] == 0 {
			t.Errorf("missing aggregated error for field %q (got %v)", want, fieldsSeen)
		}
	}
}

func TestVerify_MissingFlagFileKey(t *testing.T) {
	doc := `
name: x
description: y
value: 1
visible: true
categories: [web]
flag: {notfile: nope}
`
	_, verr := Verify([]byte(doc))
	if verr == nil {
		t.Fatal("Verify() = nil, want error")
	}
	found := false
	for _, f := range verr.Fields {
		if f.Field == "flag" && f.SubKind == "missing_file_key" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected flag missing_file_key error, got %+v", verr.Fields)
	}
}

func TestVerify_FlagFileVariant(t *testing.T) {
	doc := `
name: x
description: y
value: 1
visible: true
categories: [web]
flag: {file: flag.txt}
`
	shape, verr := Verify([]byte(doc))
	if verr != nil {
		t.Fatalf("Verify() error = %v", verr)
	}
	if shape.Flag.Kind != FlagFile || shape.Flag.Path != "flag.txt" {
		t.Errorf("Flag = %+v", shape.Flag)
	}
}

func TestVerify_BadExposeFormat(t *testing.T) {
	doc := `
name: x
description: y
value: 1
visible: true
categories: [web]
flag: f
deploy:
  web:
    expose: notaport
`
	_, verr := Verify([]byte(doc))
	if verr == nil {
		t.Fatal("Verify() = nil, want error")
	}
}

func TestVerify_ReplicasOutOfRange(t *testing.T) {
	doc := `
name: x
description: y
value: 1
visible: true
categories: [web]
flag: f
deploy:
  web:
    expose: 80/tcp
    replicas: 0
`
	_, verr := Verify([]byte(doc))
	if verr == nil {
		t.Fatal("Verify() = nil, want error for replicas out of range")
	}
}

func TestVerify_EmptyCategories(t *testing.T) {
	doc := `
name: x
description: y
value: 1
visible: true
categories: []
flag: f
`
	_, verr := Verify([]byte(doc))
	if verr == nil {
		t.Fatal("Verify() = nil, want error for empty categories")
	}
}

func TestValueTypeOf_ClosedEnum(t *testing.T) {
	shape, verr := Verify([]byte(validYAML))
	if verr != nil {
		t.Fatalf("setup: Verify() error = %v", verr)
	}
	_ = shape
	// ValueType.String must be stable for messages; spot check a few.
	if TypeNull.String() != "null" || TypeMapping.String() != "mapping" || TypeTagged.String() != "tagged" {
		t.Error("ValueType.String() produced unexpected labels")
	}
}
