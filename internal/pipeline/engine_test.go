package pipeline

import (
	"testing"

	"github.com/bcactf/arcs-deploy-controller/internal/webhook"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

func TestDeployLinkKind(t *testing.T) {
	cases := map[yamlshape.DeployTargetType]webhook.DeployLinkKind{
		yamlshape.TargetWeb:   webhook.LinkWeb,
		yamlshape.TargetAdmin: webhook.LinkAdmin,
		yamlshape.TargetNc:    webhook.LinkNc,
	}
	for target, want := range cases {
		if got := deployLinkKind(target); got != want {
			t.Errorf("deployLinkKind(%v) = %v, want %v", target, got, want)
		}
	}
}

func TestFlagLiteral_FileBackedFlagIsNeverExposed(t *testing.T) {
	shape := &yamlshape.Shape{Flag: yamlshape.Flag{Kind: yamlshape.FlagFile, Path: "flag.txt"}}
	if got := flagLiteral(shape); got != "" {
		t.Errorf("flagLiteral() = %q for a file-backed flag, want empty string", got)
	}
}

func TestFlagLiteral_StringFlagIsExposed(t *testing.T) {
	shape := &yamlshape.Shape{Flag: yamlshape.Flag{Kind: yamlshape.FlagString, Literal: "bcactf{test}"}}
	if got := flagLiteral(shape); got != "bcactf{test}" {
		t.Errorf("flagLiteral() = %q, want the literal flag", got)
	}
}

func TestInt32Slice_CopiesRatherThanAliases(t *testing.T) {
	original := []int32{1, 2, 3}
	copied := int32Slice(original)
	copied[0] = 99
	if original[0] != 1 {
		t.Error("int32Slice should copy, not alias, the backing array")
	}
}
